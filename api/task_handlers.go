package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Description string `json:"description"`
		IsCompleted bool   `json:"is_completed"`
	}
	err := readJSON(r, &input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	input.Description = strings.TrimSpace(input.Description)

	v := newValidator()
	v.checkDescription(input.Description)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	u := getUserFromRequest(r)
	t := &task{
		UserID:      u.ID,
		Description: input.Description,
		IsCompleted: input.IsCompleted,
	}
	err = app.storage.insertTask(t)
	if err != nil {
		app.logger.Err(err).Msg("could not insert task")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, t, http.StatusCreated)
}

// sortable maps the query-string names onto real columns; anything else is
// ignored rather than interpolated into SQL.
var sortable = map[string]string{
	"id":           "id",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"description":  "description",
	"is_completed": "is_completed",
}

func parseTaskFilters(r *http.Request) taskFilters {
	var f taskFilters
	q := r.URL.Query()
	if c := q.Get("completed"); c != "" {
		completed := c == "true"
		f.completed = &completed
	}
	// non-numeric values mean "unlimited" and "from the start"
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		f.limit = limit
	}
	if skip, err := strconv.Atoi(q.Get("skip")); err == nil && skip > 0 {
		f.skip = skip
	}
	if sortBy := q.Get("sortBy"); sortBy != "" {
		field, dir, _ := strings.Cut(sortBy, ":")
		if col, ok := sortable[field]; ok {
			f.sortBy = col
			f.desc = dir == "desc"
		}
	}
	return f
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	tasks, err := app.storage.getTasks(u.ID, parseTaskFilters(r))
	if err != nil {
		app.logger.Err(err).Msg("could not list tasks")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, tasks, http.StatusOK)
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	t, err := app.storage.getTask(id, u.ID)
	if err != nil {
		app.logger.Err(err).Msg("could not look up task")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}

	var input struct {
		Description *string `json:"description"`
		IsCompleted *bool   `json:"is_completed"`
	}
	err = readJSON(r, &input)
	if err != nil {
		writeError(w, errors.New("invalid updates"), http.StatusBadRequest)
		return
	}

	v := newValidator()
	if input.Description != nil {
		*input.Description = strings.TrimSpace(*input.Description)
		v.checkDescription(*input.Description)
	}
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	t, err := app.storage.getTask(id, u.ID)
	if err != nil {
		app.logger.Err(err).Msg("could not look up task")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}

	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.IsCompleted != nil {
		t.IsCompleted = *input.IsCompleted
	}
	err = app.storage.updateTask(t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errEditConflict, http.StatusConflict)
			return
		}
		app.logger.Err(err).Msg("could not update task")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	t, err := app.storage.deleteTask(id, u.ID)
	if err != nil {
		app.logger.Err(err).Msg("could not delete task")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, t, http.StatusOK)
}
