package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/handler/hook"
	"github.com/zhouzirui/chatwidget/internal/handler/widget"
	middlewarePkg "github.com/zhouzirui/chatwidget/internal/middleware"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

// NewRouter wires HTTP routes to core services. replier may be nil, in which case
// the built-in webhook is not mounted.
func NewRouter(tabSvc *tabs.Service, replier hook.Replier, pageTitle string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Host page, form fallbacks and live channel
	widget.New(tabSvc, pageTitle).RegisterRoutes(r)
	widget.NewWebSocketHandler(tabSvc).RegisterWebSocketRoutes(r)

	if replier != nil {
		hook.New(replier).RegisterRoutes(r)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":  "ok",
				"webhook": replier != nil,
				"tabs":    tabSvc.Len(),
				"time":    time.Now().UTC().Format(time.RFC3339),
			})
		})
	})

	return r
}
