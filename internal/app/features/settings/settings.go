package settings

import (
	"context"
	"errors"
	"net/http"
	"time"

	settingsstore "github.com/Pythagora-io/okrtracker/internal/app/store/settings"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
)

type settingsView struct {
	DayOfWeek int       `json:"dayOfWeek"`
	Hour      int       `json:"hour"`
	Minute    int       `json:"minute"`
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSettingsView(s *models.AutomationSettings) settingsView {
	return settingsView{
		DayOfWeek: s.DayOfWeek,
		Hour:      s.Hour,
		Minute:    s.Minute,
		Timezone:  s.Timezone,
		UpdatedAt: s.UpdatedAt,
	}
}

type settingsResponse struct {
	Settings settingsView `json:"settings"`
}

type updateResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Settings settingsView `json:"settings"`
}

// ServeSettings handles GET /api/settings/automation. The default document
// (Monday 09:00 UTC) is created lazily on first read.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.WriteError(w, r, "settings get", apperr.Storage(err, "failed to load settings"))
		return
	}
	httpjson.Write(w, http.StatusOK, settingsResponse{Settings: newSettingsView(s)})
}

// updateRequest uses pointers so an omitted field keeps its stored value.
type updateRequest struct {
	DayOfWeek *int    `json:"dayOfWeek"`
	Hour      *int    `json:"hour"`
	Minute    *int    `json:"minute"`
	Timezone  *string `json:"timezone"`
}

// HandleUpdate handles PUT /api/settings/automation. Only the supplied
// fields change.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "settings update: decode", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Settings.Update(ctx, settingsstore.Patch{
		DayOfWeek: req.DayOfWeek,
		Hour:      req.Hour,
		Minute:    req.Minute,
		Timezone:  req.Timezone,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			h.ErrLog.WriteError(w, r, "settings update", err)
			return
		}
		h.ErrLog.WriteError(w, r, "settings update", apperr.Storage(err, "failed to update settings"))
		return
	}
	httpjson.Write(w, http.StatusOK, updateResponse{
		Success:  true,
		Message:  "Automation settings updated successfully",
		Settings: newSettingsView(s),
	})
}
