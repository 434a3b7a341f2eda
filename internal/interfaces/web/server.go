// Package web serves the admin JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/julienschmidt/httprouter"

	"github.com/example/teetime-scheduler/internal/application/scheduler"
	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/auth"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

// Runner starts acquisition runs, direct bookings and ad-hoc searches.
type Runner interface {
	Trigger(ctx context.Context, source scheduler.Source) scheduler.Result
	Book(ctx context.Context, r usecases.Reservation, email string) scheduler.Result
	Search(ctx context.Context, date time.Time, window teetime.TimeWindow, preferredMinutes, minPlayers int) ([]teetime.Candidate, error)
}

type StatusReporter interface {
	Status(ctx context.Context) (scheduler.Status, error)
}

type Server struct {
	Auth      *auth.Store
	Players   usecases.PlayerService
	Bookings  usecases.BookingService
	Settings  usecases.SettingsService
	Runner    Runner
	Scheduler StatusReporter
	Location  *time.Location
	Now       func() time.Time
	Log       *logging.Logger
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) Routes() http.Handler {
	r := httprouter.New()

	r.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.POST("/login", s.handleLogin)
	r.POST("/logout", s.handleLogout)

	api := func(method, path string, h httprouter.Handle) {
		r.Handler(method, path, s.Auth.RequireAuth(params(h)))
	}

	api(http.MethodGet, "/api/scheduler/status", s.handleSchedulerStatus)
	api(http.MethodPost, "/api/scheduler/run", s.handleSchedulerRun)

	api(http.MethodGet, "/api/settings", s.handleGetSettings)
	api(http.MethodPut, "/api/settings/scheduler", s.handleUpdateScheduler)
	api(http.MethodPut, "/api/settings/notifications", s.handleUpdateNotifications)
	api(http.MethodPut, "/api/settings/default-players", s.handleUpdateDefaultPlayers)
	api(http.MethodPut, "/api/settings/default-use-cart", s.handleUpdateDefaultUseCart)

	api(http.MethodGet, "/api/players", s.handleListPlayers)
	api(http.MethodPost, "/api/players", s.handleCreatePlayer)
	api(http.MethodGet, "/api/players/:id", s.handleGetPlayer)
	api(http.MethodPut, "/api/players/:id", s.handleUpdatePlayer)
	api(http.MethodDelete, "/api/players/:id", s.handleDeletePlayer)

	api(http.MethodGet, "/api/bookings", s.handleListBookings)
	api(http.MethodPost, "/api/bookings", s.handleCreateBooking)
	api(http.MethodPost, "/api/bookings/book", s.handleBook)
	api(http.MethodGet, "/api/bookings/:id", s.handleGetBooking)
	api(http.MethodPut, "/api/bookings/:id", s.handleUpdateBooking)
	api(http.MethodDelete, "/api/bookings/:id", s.handleDeleteBooking)

	api(http.MethodPost, "/api/teetimes/search", s.handleSearch)

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrors(w, http.StatusNotFound, "not found")
	})

	var h http.Handler = r
	h = requestLogging(s.Log)(h)
	h = recovery(s.Log)(h)
	return h
}

// params lets httprouter handlers sit behind plain http middleware.
func params(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, httprouter.ParamsFromContext(r.Context()))
	})
}

// Start serves h on addr until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log *logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}
