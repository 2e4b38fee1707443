package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/config"
	"github.com/taskflowhq/taskflow/internal/notification"
	"github.com/taskflowhq/taskflow/internal/project"
	"github.com/taskflowhq/taskflow/internal/pushsubscription"
	"github.com/taskflowhq/taskflow/internal/task"
	"github.com/taskflowhq/taskflow/internal/tips"
	"github.com/taskflowhq/taskflow/pkg/cerr"
	"github.com/taskflowhq/taskflow/pkg/clog"
)

type Server struct {
	server             *http.Server
	env                *config.BaseEnv
	authServer         *auth.Server
	taskServer         *task.Server
	projectServer      *project.Server
	notificationServer *notification.Server
	pushServer         *pushsubscription.Server
	tipsServer         *tips.Server
}

func NewServer(
	env *config.BaseEnv,
	authServer *auth.Server,
	taskServer *task.Server,
	projectServer *project.Server,
	notificationServer *notification.Server,
	pushServer *pushsubscription.Server,
	tipsServer *tips.Server,
) *Server {
	return &Server{
		env:                env,
		authServer:         authServer,
		taskServer:         taskServer,
		projectServer:      projectServer,
		notificationServer: notificationServer,
		pushServer:         pushServer,
		tipsServer:         tipsServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext, so
// canceling it on shutdown also cancels in-flight request contexts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		// Open endpoints: everything needed before a session exists.
		r.Post("/auth/signup", s.authServer.Signup)
		r.Post("/auth/login", s.authServer.Login)
		r.Get("/push/vapid-public-key", s.pushServer.VAPIDPublicKey)

		r.Group(func(r chi.Router) {
			r.Use(s.authServer.Guard)

			r.Post("/auth/logout", s.authServer.Logout)
			r.Get("/auth/me", s.authServer.Me)
			r.Post("/auth/profile", s.authServer.UpdateProfile)
			r.Post("/auth/password", s.authServer.ChangePassword)

			r.Get("/dashboard", s.taskServer.Dashboard)
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.taskServer.List)
				r.Post("/", s.taskServer.Create)
				r.Get("/{id}", s.taskServer.Get)
				r.Post("/{id}", s.taskServer.Update)
				r.Put("/{id}", s.taskServer.Update)
				r.Post("/{id}/complete", s.taskServer.MarkComplete)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.projectServer.List)
				r.Post("/", s.projectServer.Create)
				r.Post("/{id}/members", s.projectServer.AddMember)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.notificationServer.List)
				r.Post("/{id}/read", s.notificationServer.MarkRead)
			})

			r.Route("/push", func(r chi.Router) {
				r.Post("/subscribe", s.pushServer.Subscribe)
				r.Post("/unsubscribe", s.pushServer.Unsubscribe)
			})

			r.Route("/tips", func(r chi.Router) {
				r.Get("/random", s.tipsServer.Random)
				r.Get("/saved", s.tipsServer.ListSaved)
				r.Post("/saved", s.tipsServer.Save)
				r.Delete("/saved/{id}", s.tipsServer.DeleteSaved)
			})
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
