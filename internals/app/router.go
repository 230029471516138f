package app

import (
	"net/http"
	"time"

	middle "statusdeck/internals/middleware"
	"statusdeck/internals/modules/monitor"
	"statusdeck/internals/modules/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		// Timeout stays off the websocket routes, it would cut long-lived
		// connections.
		v1.Use(middleware.Timeout(15 * time.Second))

		v1.Mount("/monitors", monitor.Routes(c.monitorHandler))

		v1.Route("/organizations/{organizationID}", func(org chi.Router) {
			org.Get("/monitors", c.monitorHandler.ListOrganizationMonitors)
			org.Get("/incidents", c.incidentHandler.ListOrganizationIncidents)
		})
	})

	r.Mount("/ws", realtime.Routes(c.wsHandler))

	return r
}
