package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedran77/ripple/internal/domain"
)

// In-memory repository fakes. They mirror the store's append-if-absent
// receipt semantics so idempotence tests exercise the same contract.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) SetPresence(_ context.Context, id uuid.UUID, online bool, lastSeen *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsOnline = online
		u.LastSeen = lastSeen
	}
	return nil
}

func (r *fakeUserRepo) UpdateSettings(_ context.Context, id uuid.UUID, patch domain.SettingsPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if patch.ShareLocation != nil {
		u.Settings.ShareLocation = *patch.ShareLocation
	}
	if patch.ShowLastSeen != nil {
		u.Settings.ShowLastSeen = *patch.ShowLastSeen
	}
	if patch.ReadReceiptsEnabled != nil {
		u.Settings.ReadReceiptsEnabled = *patch.ReadReceiptsEnabled
	}
	if patch.Location != nil {
		u.Location = patch.Location
	}
	copied := *u
	return &copied, nil
}

type fakeConvRepo struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*domain.Conversation

	summaryErr error // when set, SetLastMessage fails
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[uuid.UUID]*domain.Conversation)}
}

func (r *fakeConvRepo) add(c *domain.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[c.ID] = c
}

func (r *fakeConvRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID] = conv
	return nil
}

func (r *fakeConvRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeConvRepo) GetByParticipants(_ context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if c.HasParticipant(user1ID) && c.HasParticipant(user2ID) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeConvRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) ListIDsByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) SetLastMessage(_ context.Context, id uuid.UUID, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summaryErr != nil {
		return r.summaryErr
	}
	if c, ok := r.convs[id]; ok {
		c.LastMessage = &content
		c.UpdatedAt = at
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
	convs    *fakeConvRepo
}

func newFakeMessageRepo(convs *fakeConvRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[uuid.UUID]*domain.Message),
		convs:    convs,
	}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	return copyMessage(msg), nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, page, limit int) ([]domain.Message, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			all = append(all, *copyMessage(m))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	total := len(all)

	start := total - page*limit
	end := total - (page-1)*limit
	if end < 0 {
		end = 0
	}
	if start < 0 {
		start = 0
	}
	return all[start:end], total, nil
}

func (r *fakeMessageRepo) ListMissed(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Message, error) {
	ids, _ := r.convs.ListIDsByUser(ctx, userID)
	member := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if member[m.ConversationID] && m.SenderID != userID && m.CreatedAt.After(since) {
			out = append(out, *copyMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) MarkDelivered(_ context.Context, messageID, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[messageID]
	if !ok {
		return nil
	}
	if msg.WasDeliveredTo(userID) {
		return nil
	}
	msg.DeliveredTo = append(msg.DeliveredTo, domain.DeliveryReceipt{UserID: userID, DeliveredAt: at})
	return nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, messageID, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[messageID]
	if !ok {
		return nil
	}
	if msg.WasReadBy(userID) {
		return nil
	}
	msg.ReadBy = append(msg.ReadBy, domain.ReadReceipt{UserID: userID, ReadAt: at})
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) get(id uuid.UUID) *domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil
	}
	return copyMessage(msg)
}

func copyMessage(m *domain.Message) *domain.Message {
	copied := *m
	copied.DeliveredTo = append([]domain.DeliveryReceipt{}, m.DeliveredTo...)
	copied.ReadBy = append([]domain.ReadReceipt{}, m.ReadBy...)
	return &copied
}

type fakeLiveness struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func newFakeLiveness(online ...uuid.UUID) *fakeLiveness {
	l := &fakeLiveness{online: make(map[uuid.UUID]bool)}
	for _, id := range online {
		l.online[id] = true
	}
	return l
}

func (l *fakeLiveness) IsOnline(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.online[userID]
}

type deliveredCall struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	UserID         uuid.UUID
}

type readCall struct {
	SenderID  uuid.UUID
	MessageID uuid.UUID
	ReaderID  uuid.UUID
}

type deletedCall struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
}

type fakeNotifier struct {
	mu          sync.Mutex
	newMessages []*domain.Message
	delivered   []deliveredCall
	reads       []readCall
	deleted     []deletedCall
	presence    []*domain.PresenceUpdate
	settings    []*domain.SettingsUpdate
}

func (n *fakeNotifier) NewMessage(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newMessages = append(n.newMessages, msg)
}

func (n *fakeNotifier) MessageDelivered(conversationID, messageID, userID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, deliveredCall{conversationID, messageID, userID})
}

func (n *fakeNotifier) MessageRead(senderID, messageID, readerID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, readCall{senderID, messageID, readerID})
}

func (n *fakeNotifier) MessageDeleted(conversationID, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, deletedCall{conversationID, messageID})
}

func (n *fakeNotifier) PresenceChanged(update *domain.PresenceUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presence = append(n.presence, update)
}

func (n *fakeNotifier) SettingsUpdated(update *domain.SettingsUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settings = append(n.settings, update)
}

func (n *fakeNotifier) deliveredCalls() []deliveredCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]deliveredCall{}, n.delivered...)
}

func (n *fakeNotifier) readCalls() []readCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]readCall{}, n.reads...)
}

func (n *fakeNotifier) presenceUpdates() []*domain.PresenceUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*domain.PresenceUpdate{}, n.presence...)
}

func (n *fakeNotifier) settingsUpdates() []*domain.SettingsUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*domain.SettingsUpdate{}, n.settings...)
}
