package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/{monitorID}", h.GetMonitor)
	r.Patch("/{monitorID}", h.UpdateMonitor)
	r.Delete("/{monitorID}", h.DeleteMonitor)
	r.Get("/{monitorID}/results", h.ListMonitorResults)

	return r
}
