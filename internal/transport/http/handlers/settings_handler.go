package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/domain"
	"github.com/vedran77/ripple/internal/service"
	"github.com/vedran77/ripple/internal/transport/http/middleware"
	"github.com/vedran77/ripple/pkg/validator"
)

type SettingsHandler struct {
	presence *service.PresenceService
	log      *zap.Logger
}

func NewSettingsHandler(presence *service.PresenceService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{presence: presence, log: log}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	settings, err := h.presence.Settings(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		h.log.Error("get settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	ReadReceiptsEnabled *bool   `json:"readReceiptsEnabled"`
	ShareLocation       *bool   `json:"shareLocation"`
	ShowLastSeen        *bool   `json:"showLastSeen"`
	Location            *string `json:"location" validate:"omitempty,max=200"`
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.Struct(input); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.presence.UpdateSettings(r.Context(), userID, domain.SettingsPatch{
		ReadReceiptsEnabled: input.ReadReceiptsEnabled,
		ShareLocation:       input.ShareLocation,
		ShowLastSeen:        input.ShowLastSeen,
		Location:            input.Location,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		h.log.Error("update settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, user.Settings)
}
