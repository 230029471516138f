package incident

import (
	"net/http"
	"strconv"

	"statusdeck/pkg/apperror"
	"statusdeck/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// /organizations/{organizationID}/incidents?limit=50&offset=0
func (h *Handler) ListOrganizationIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	orgID, err := uuid.Parse(chi.URLParam(r, "organizationID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid organization id")
		return
	}

	limit := parseQueryInt(r, "limit", 50, 1, 500)
	offset := parseQueryInt(r, "offset", 0, 0, 1<<30)

	incidents, err := h.service.ListByOrganization(ctx, orgID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := make([]IncidentResponse, 0, len(incidents))
	for _, inc := range incidents {
		resp = append(resp, toIncidentResponse(inc))
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.IncidentsFetched, resp)
}

func parseQueryInt(r *http.Request, key string, def, min, max int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	n := int32(v)
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
