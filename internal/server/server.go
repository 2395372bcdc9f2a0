package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/service"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AdminServer exposes the competition management operations as a JSON
// HTTP API. The chat-facing presentation layer is a separate process
// consuming this API and the notifier events.
type AdminServer struct {
	svc    *service.AdminService
	logger zerolog.Logger
}

func NewAdminServer(svc *service.AdminService, logger zerolog.Logger) *AdminServer {
	return &AdminServer{svc: svc, logger: logger}
}

func (s *AdminServer) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", s.handleListTeams)
		r.Post("/", s.handleAddTeam)
		r.Post("/rename", s.handleRenameTeam)
	})

	r.Route("/players", func(r chi.Router) {
		r.Post("/", s.handleAddPlayer)
		r.Post("/rename", s.handleChangeRSN)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.handleAddTask)
		r.Put("/{id}", s.handleEditTask)
		r.Delete("/{id}", s.handleRemoveTask)
	})

	r.Route("/days/{day}", func(r chi.Router) {
		r.Get("/", s.handleDayView)
		r.Get("/announcement", s.handleAnnouncement)
		r.Post("/password", s.handleSetPassword)
		r.Post("/all-required", s.handleSetAllRequired)
	})

	r.Route("/drops", func(r chi.Router) {
		r.Post("/", s.handleRegisterDrop)
		r.Delete("/{id}", s.handleDeleteDrop)
	})

	r.Get("/progress", s.handleCheckProgress)

	return r
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *AdminServer) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.svc.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, teams)
}

func (s *AdminServer) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	team, err := s.svc.AddTeam(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"name": team.Name, "lives": team.Lives})
}

func (s *AdminServer) handleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.RenameTeam(r.Context(), req.OldName, req.NewName); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"name": req.NewName})
}

func (s *AdminServer) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RSN  string `json:"rsn"`
		Team string `json:"team"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.svc.AddPlayer(r.Context(), req.RSN, req.Team)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"rsn": player.RSN})
}

func (s *AdminServer) handleChangeRSN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldRSN string `json:"old_rsn"`
		NewRSN string `json:"new_rsn"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.ChangeRSN(r.Context(), req.OldRSN, req.NewRSN); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"rsn": req.NewRSN})
}

func (s *AdminServer) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day            string `json:"day"`
		Description    string `json:"description"`
		Pattern        string `json:"pattern"`
		NumberRequired int    `json:"number_required"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	task, err := s.svc.AddTask(r.Context(), req.Day, req.Description, req.Pattern, req.NumberRequired)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *AdminServer) handleEditTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Description    string `json:"description"`
		Pattern        string `json:"pattern"`
		NumberRequired int    `json:"number_required"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.EditTask(r.Context(), id, req.Description, req.Pattern, req.NumberRequired); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"task_id": id})
}

func (s *AdminServer) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.svc.RemoveTask(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *AdminServer) handleDayView(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.DayView(r.Context(), chi.URLParam(r, "day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *AdminServer) handleAnnouncement(w http.ResponseWriter, r *http.Request) {
	description, err := s.svc.TaskDescription(r.Context(), chi.URLParam(r, "day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"description": description})
}

func (s *AdminServer) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.SetPassword(r.Context(), chi.URLParam(r, "day"), req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *AdminServer) handleSetAllRequired(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AllRequired bool `json:"all_required"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.SetAllRequired(r.Context(), chi.URLParam(r, "day"), req.AllRequired); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *AdminServer) handleRegisterDrop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RSN       string `json:"rsn"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.RegisterDrop(r.Context(), req.RSN, req.Message, req.Timestamp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *AdminServer) handleDeleteDrop(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDrop(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *AdminServer) handleCheckProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.CheckProgress(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

func (s *AdminServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *AdminServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *AdminServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *AdminServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
