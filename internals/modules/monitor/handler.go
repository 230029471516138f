package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"statusdeck/internals/modules/result"
	"statusdeck/pkg/apperror"
	"statusdeck/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ResultSource interface {
	ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]result.Outcome, error)
}

type Handler struct {
	service   *Service
	results   ResultSource
	validator *validator.Validate
}

func NewHandler(service *Service, results ResultSource, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		results:   results,
		validator: validator,
	}
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid service id")
		return
	}

	cmd := CreateMonitorCmd{
		ServiceID:           serviceID,
		Name:                req.Name,
		URL:                 req.URL,
		Method:              req.Method,
		Headers:             req.Headers,
		Type:                req.Type,
		IntervalSec:         req.Interval,
		TimeoutMs:           req.Timeout,
		DegradedThresholdMs: req.DegradedThreshold,
		Active:              true,
	}
	if cmd.Method == "" {
		cmd.Method = http.MethodGet
	}
	if cmd.Type == "" {
		cmd.Type = "HTTP"
	}
	if req.Active != nil {
		cmd.Active = *req.Active
	}

	id, err := h.service.CreateMonitor(ctx, cmd)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, reqID, utils.MonitorCreated, map[string]string{"id": id.String()})
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	snap, err := h.service.GetSnapshot(ctx, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorFetched, toMonitorResponse(snap))
}

func (h *Handler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req UpdateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	snap, err := h.service.UpdateMonitor(ctx, monitorID, UpdateMonitorCmd{
		Name:                req.Name,
		URL:                 req.URL,
		Method:              req.Method,
		Headers:             req.Headers,
		Type:                req.Type,
		IntervalSec:         req.Interval,
		TimeoutMs:           req.Timeout,
		DegradedThresholdMs: req.DegradedThreshold,
		Active:              req.Active,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorUpdated, toMonitorResponse(snap))
}

func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	if err := h.service.DeleteMonitor(ctx, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorDeleted, map[string]string{"id": monitorID.String()})
}

// /monitors/{monitorID}/results?limit=50&offset=0
func (h *Handler) ListMonitorResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	limit := parseQueryInt(r, "limit", 50, 1, 500)
	offset := parseQueryInt(r, "offset", 0, 0, 1<<30)

	outcomes, err := h.results.ListByMonitor(ctx, monitorID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := make([]ResultResponse, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, ResultResponse{
			MonitorID:      o.MonitorID.String(),
			Status:         string(o.Status),
			ResponseTimeMs: o.ResponseTimeMs,
			HTTPStatusCode: o.HTTPStatusCode,
			CheckedAt:      o.CheckedAt,
			Error:          o.Error,
		})
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.ResultsFetched, resp)
}

// /organizations/{organizationID}/monitors
func (h *Handler) ListOrganizationMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	orgID, err := uuid.Parse(chi.URLParam(r, "organizationID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid organization id")
		return
	}

	monitors, err := h.service.ListByOrganization(ctx, orgID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := make([]OrgMonitorResponse, 0, len(monitors))
	for _, m := range monitors {
		om := OrgMonitorResponse{MonitorResponse: toMonitorResponse(m.Snapshot)}
		if m.LatestResult != nil {
			om.LatestResult = &LatestResultResponse{
				Status:         m.LatestResult.Status,
				ResponseTimeMs: m.LatestResult.ResponseTimeMs,
				HTTPStatusCode: m.LatestResult.HTTPStatusCode,
				CheckedAt:      m.LatestResult.CheckedAt,
				Error:          m.LatestResult.Error,
			}
		}
		resp = append(resp, om)
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.MonitorsFetched, resp)
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
