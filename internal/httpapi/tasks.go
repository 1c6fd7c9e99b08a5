package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"todoassist/internal/task"
)

type taskResponse struct {
	ID          string     `json:"id"`
	FullID      string     `json:"full_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func toTaskResponse(t task.Task) taskResponse {
	return taskResponse{
		ID:          t.ShortID(),
		FullID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := task.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "filter must be all, pending or completed")
		return
	}

	tasks, err := s.store.ListTasks(r.Context(), userID(r), filter)
	if err != nil {
		s.internalError(w, r, "list tasks", err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := s.store.AddTask(r.Context(), userID(r), req.Title, req.Description)
	if err != nil {
		s.taskError(w, r, "add task", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["taskID"]
	tasks, err := s.store.ListTasks(r.Context(), userID(r), task.FilterAll)
	if err != nil {
		s.internalError(w, r, "list tasks", err)
		return
	}
	for _, t := range tasks {
		if t.ID == id {
			writeJSON(w, http.StatusOK, toTaskResponse(t))
			return
		}
	}
	writeError(w, http.StatusNotFound, "task not found")
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := s.store.UpdateTask(r.Context(), userID(r), mux.Vars(r)["taskID"], req.Title, req.Description)
	if err != nil {
		s.taskError(w, r, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), userID(r), mux.Vars(r)["taskID"]); err != nil {
		s.taskError(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.CompleteTask(r.Context(), userID(r), mux.Vars(r)["taskID"])
	if err != nil {
		s.taskError(w, r, "complete task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// taskError maps domain errors onto HTTP statuses; anything else is a 500.
func (s *Server) taskError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}
	s.internalError(w, r, op, err)
}
