package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/teetime-scheduler/internal/application/scheduler"
	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in loginRequest
	if !decode(w, r, &in) {
		return
	}
	id, err := s.Auth.Authenticate(r.Context(), strings.TrimSpace(in.Username), in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Auth.SetSession(w, r, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.Auth.ClearSession(w)
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := s.Scheduler.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"status": st})
}

// handleSchedulerRun runs synchronously. The run is detached from the
// request so a dropped client cannot abort a booking mid-submit; the run
// deadline still applies.
func (s *Server) handleSchedulerRun(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res := s.Runner.Trigger(context.WithoutCancel(r.Context()), scheduler.SourceManual)
	switch {
	case res.Busy:
		writeJSON(w, http.StatusConflict, res)
	case !res.Success:
		writeJSON(w, http.StatusBadRequest, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cur, err := s.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": cur})
}

func (s *Server) handleUpdateScheduler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in settings.Scheduler
	if !decode(w, r, &in) {
		return
	}
	out, err := s.Settings.UpdateScheduler(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": out})
}

func (s *Server) handleUpdateNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in settings.Notifications
	if !decode(w, r, &in) {
		return
	}
	out, err := s.Settings.UpdateNotifications(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": out})
}

func (s *Server) handleUpdateDefaultPlayers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		DefaultPlayers int `json:"defaultPlayers"`
	}
	if !decode(w, r, &in) {
		return
	}
	out, err := s.Settings.UpdateDefaultPlayers(r.Context(), in.DefaultPlayers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": out})
}

func (s *Server) handleUpdateDefaultUseCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		DefaultUseCart *bool `json:"defaultUseCart"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.DefaultUseCart == nil {
		writeErrors(w, http.StatusBadRequest, "defaultUseCart: is required")
		return
	}
	out, err := s.Settings.UpdateDefaultUseCart(r.Context(), *in.DefaultUseCart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"settings": out})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ps, err := s.Players.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ps == nil {
		ps = []player.Player{}
	}
	writeOK(w, http.StatusOK, envelope{"players": ps})
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in player.Player
	if !decode(w, r, &in) {
		return
	}
	p, err := s.Players.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"player": p})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := s.Players.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"player": p})
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in player.Player
	if !decode(w, r, &in) {
		return
	}
	p, err := s.Players.Update(r.Context(), ps.ByName("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"player": p})
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Players.Delete(r.Context(), ps.ByName("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		out []teetime.BookingAttempt
		err error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "":
		out, err = s.Bookings.List(r.Context())
	case "upcoming":
		out, err = s.Bookings.ListUpcoming(r.Context(), s.now())
	case "past":
		out, err = s.Bookings.ListPast(r.Context(), s.now())
	default:
		writeErrors(w, http.StatusBadRequest, "scope must be upcoming or past")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		out = []teetime.BookingAttempt{}
	}
	writeOK(w, http.StatusOK, envelope{"bookings": out})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := s.Bookings.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"booking": b})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in usecases.BookingRecord
	if !decode(w, r, &in) {
		return
	}
	b, err := s.Bookings.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"booking": b})
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in usecases.BookingRecord
	if !decode(w, r, &in) {
		return
	}
	b, err := s.Bookings.Update(r.Context(), ps.ByName("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"booking": b})
}

type bookRequest struct {
	BookingData *bookingSlot `json:"bookingData" validate:"required"`
	Email       string       `json:"email" validate:"omitempty,email"`
}

type bookingSlot struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string   `json:"time" validate:"required,hhmm"`
	Players    []string `json:"players" validate:"required,min=1,max=4,unique,dive,required"`
	UseCart    bool     `json:"useCart"`
	BookingURL string   `json:"bookingUrl" validate:"omitempty,url"`
}

// handleBook books a caller-chosen slot right away. Like a manual run it is
// detached from the request and shares the run lock.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in bookRequest
	if !decode(w, r, &in) {
		return
	}
	if err := validation.Struct(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	slot := in.BookingData
	date, err := time.ParseInLocation(teetime.DateLayout, slot.Date, loc)
	if err != nil {
		s.writeError(w, r, validation.Errors{{Field: "date", Message: "must be a date in YYYY-MM-DD format"}})
		return
	}

	res := s.Runner.Book(context.WithoutCancel(r.Context()), usecases.Reservation{
		Date:      date,
		Candidate: teetime.Candidate{Time24: slot.Time, BookingHandle: slot.BookingURL},
		PlayerIDs: slot.Players,
		UseCart:   slot.UseCart,
	}, in.Email)
	switch {
	case res.Busy:
		writeJSON(w, http.StatusConflict, res)
	case !res.Success:
		writeJSON(w, http.StatusBadRequest, res)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.Bookings.Delete(r.Context(), ps.ByName("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

type searchRequest struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime       string `json:"endTime" validate:"omitempty,hhmm"`
	PreferredTime string `json:"preferredTime" validate:"omitempty,hhmm"`
	Players       int    `json:"players" validate:"omitempty,gte=1,lte=4"`
}

type searchParams struct {
	date       time.Time
	window     teetime.TimeWindow
	preferred  int
	minPlayers int
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in searchRequest
	if !decode(w, r, &in) {
		return
	}
	p, err := in.parse(s.Location)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	got, err := s.Runner.Search(r.Context(), p.date, p.window, p.preferred, p.minPlayers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if got == nil {
		got = []teetime.Candidate{}
	}
	writeOK(w, http.StatusOK, envelope{"teeTimes": got})
}

// parse fills the defaults: the whole day, preferring its start, for one
// player.
func (in searchRequest) parse(loc *time.Location) (searchParams, error) {
	if err := validation.Struct(in); err != nil {
		return searchParams{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	p := searchParams{
		window:     teetime.TimeWindow{Start: teetime.MinMinute, End: teetime.MaxMinute},
		minPlayers: 1,
	}
	var err error
	if p.date, err = time.ParseInLocation(teetime.DateLayout, in.Date, loc); err != nil {
		return searchParams{}, err
	}
	if in.StartTime != "" {
		if p.window.Start, err = teetime.ParseClock(in.StartTime); err != nil {
			return searchParams{}, err
		}
	}
	if in.EndTime != "" {
		if p.window.End, err = teetime.ParseClock(in.EndTime); err != nil {
			return searchParams{}, err
		}
	}
	if p.window.Start > p.window.End {
		return searchParams{}, validation.Errors{{Field: "endTime", Message: "must not be before startTime"}}
	}
	p.preferred = p.window.Start
	if in.PreferredTime != "" {
		if p.preferred, err = teetime.ParseClock(in.PreferredTime); err != nil {
			return searchParams{}, err
		}
	}
	if in.Players != 0 {
		p.minPlayers = in.Players
	}
	return p, nil
}
