package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
	"github.com/nhle/focusflow/internal/tasks"
)

type createTaskRequest struct {
	Title       string          `json:"titulo"`
	Description string          `json:"description"`
	Priority    string          `json:"prioridade"`
	SubItems    []model.SubItem `json:"subtarefas"`
}

type updateTaskRequest struct {
	Title       *string `json:"titulo"`
	Description *string `json:"description"`
	Priority    *string `json:"prioridade"`
}

type subItemRequest struct {
	Name string `json:"nome"`
}

type completeRequest struct {
	Complete bool `json:"concluida"`
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func pathIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return 0, errors.Join(errBadRequest, err)
	}
	return i, nil
}

// taskFilterFromQuery reads ?prioridade=&concluida=&q=&sort=&desc=&limit=&offset=.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	var f store.TaskFilter

	if v := q.Get("prioridade"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = &p
	}
	if v := q.Get("concluida"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.Join(errBadRequest, err)
		}
		f.Complete = &b
	}
	if v := q.Get("q"); v != "" {
		f.Query = &v
	}
	f.SortBy = q.Get("sort")
	f.SortDesc = q.Get("desc") == "true"
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, errors.Join(errBadRequest, errors.New(key+" must be a non-negative integer"))
			}
			*dst = n
		}
	}
	return f, nil
}

// GET /api/v1/tasks
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilterFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.tasks.List(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/v1/tasks
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), currentUser(r).ID, tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		SubItems:    req.SubItems,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.tasksCreated.Inc()
	writeJSON(w, http.StatusCreated, task)
}

// GET /api/v1/tasks/summary
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tasks.Summary(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/v1/tasks/{id}
func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), currentUser(r).ID, pathID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// PATCH /api/v1/tasks/{id} edits title, description and priority.
// Absent fields keep their current value.
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	owner := currentUser(r).ID

	current, err := s.tasks.Get(ctx, owner, pathID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := tasks.DetailsInput{
		Title:       current.Title,
		Description: current.Description,
		Priority:    current.Priority,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Priority != nil {
		in.Priority = model.Priority(*req.Priority)
	}

	task, err := s.tasks.UpdateDetails(ctx, owner, current.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DELETE /api/v1/tasks/{id}
func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), currentUser(r).ID, pathID(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/tasks/{id}/concluida
func (s *Server) setComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.SetComplete(r.Context(), currentUser(r).ID, pathID(r), req.Complete)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// POST /api/v1/tasks/{id}/subtarefas
func (s *Server) addSubItem(w http.ResponseWriter, r *http.Request) {
	var req subItemRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.AddSubItem(r.Context(), currentUser(r).ID, pathID(r), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// PUT /api/v1/tasks/{id}/subtarefas
func (s *Server) replaceSubItems(w http.ResponseWriter, r *http.Request) {
	var items []model.SubItem
	if err := decode(r, &items); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.ReplaceSubItems(r.Context(), currentUser(r).ID, pathID(r), items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// PATCH /api/v1/tasks/{id}/subtarefas/{index}
func (s *Server) renameSubItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req subItemRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.RenameSubItem(r.Context(), currentUser(r).ID, pathID(r), index, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DELETE /api/v1/tasks/{id}/subtarefas/{index}
func (s *Server) removeSubItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.RemoveSubItem(r.Context(), currentUser(r).ID, pathID(r), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// POST /api/v1/tasks/{id}/subtarefas/{index}/toggle
func (s *Server) toggleSubItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.ToggleSubItem(r.Context(), currentUser(r).ID, pathID(r), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.subItemToggle.Inc()
	writeJSON(w, http.StatusOK, task)
}
