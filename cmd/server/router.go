package main

import (
	"net/http"

	"github.com/engsync/briefing/internal/api"
	apiMiddleware "github.com/engsync/briefing/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	dashboardHandler := api.NewDashboardHandler(
		app.newsletterService,
		app.tokenService,
		app.recipientStore,
		app.renderer,
		app.logger,
	)
	subscriptionHandler := api.NewSubscriptionHandler(
		app.subscriptionService,
		app.tokenService,
		app.renderer,
		app.config.Server.BaseURL,
		app.logger,
	)
	triggerHandler := api.NewTriggerHandler(app.eventEmitter, app.snapshotCache, app.logger)
	adminHandler := api.NewAdminHandler(app.recipientStore, app.deliveryStore, app.renderer, app.logger)
	adminAuth := apiMiddleware.NewAdminAuthMiddleware(
		app.config.Auth.AdminUsername,
		app.config.Auth.AdminPasswordHash,
		app.passwordVerifier,
	)

	// Public pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/dashboard", dashboardHandler.GetDashboard)
	r.Get("/manage/{token}", subscriptionHandler.GetManagePage)
	r.Post("/subscriptions", subscriptionHandler.SaveSubscriptions)
	r.Get("/subscribe/{token}", subscriptionHandler.Subscribe)
	r.Get("/unsubscribe/{token}", subscriptionHandler.Unsubscribe)

	r.Post("/api/refresh", triggerHandler.RefreshSnapshot)

	// Admin surface behind basic auth
	r.Group(func(r chi.Router) {
		r.Use(adminAuth.Authenticate)
		r.Get("/admin", adminHandler.Overview)
		r.Post("/admin/recipients", adminHandler.CreateRecipient)
		r.Delete("/admin/recipients/{id}", adminHandler.DeleteRecipient)
		r.Post("/admin/broadcast", triggerHandler.TriggerBroadcast)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
