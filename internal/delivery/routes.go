package delivery

import (
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/abakusuz/paybot/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(
	r chi.Router,
	hSubs *SubscriptionHandler,
	hHook *WebhookHandler,
	hAuth *AuthHandler,
	authSvc ports.AuthService,
) {
	// --- auth ---
	r.With(httputil.RecoverMiddleware).
		Post("/auth/login", hAuth.Login)

	// --- webhook ingress (nil when the bot is not configured) ---
	if hHook != nil {
		r.With(httputil.RecoverMiddleware, httprate.LimitByIP(60, time.Minute)).
			Post("/tg/webhook", hHook.Receive)
	}

	// --- metrics ---
	r.With(httputil.RecoverMiddleware).
		Get("/metrics", promhttp.Handler().ServeHTTP)

	// --- admin panel ---
	r.Group(func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			MetricsMiddleware,
			AuthMiddleware(authSvc),
		)

		pr.Get("/subscriptions", hSubs.List)
		pr.Post("/subscriptions/grant", hSubs.Grant)
		pr.Post("/subscriptions/extend", hSubs.Extend)
		pr.Post("/subscriptions/reset", hSubs.Reset)
		pr.Post("/subscriptions/note", hSubs.Annotate)
		pr.Post("/subscriptions/delete", hSubs.Delete)
		pr.Get("/subscriptions/status", hSubs.Status)
	})
}
