package realtime

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/monitors/{organizationID}", h.MonitorUpdates)
	r.Get("/incidents/{organizationID}", h.IncidentUpdates)

	return r
}
