package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /users", app.createUserHandler)
	mux.HandleFunc("POST /users/login", app.loginUserHandler)
	mux.HandleFunc("POST /users/logout", app.requireAuth(app.logoutUserHandler))
	mux.HandleFunc("POST /users/logoutAll", app.requireAuth(app.logoutAllUserHandler))
	mux.HandleFunc("GET /users/me", app.requireAuth(app.getCurrentUserHandler))
	mux.HandleFunc("PATCH /users/me", app.requireAuth(app.updateCurrentUserHandler))
	mux.HandleFunc("DELETE /users/me", app.requireAuth(app.deleteCurrentUserHandler))
	mux.HandleFunc("GET /users/{id}", app.getUserHandler)

	mux.HandleFunc("POST /users/me/avatar", app.requireAuth(app.uploadAvatarHandler))
	mux.HandleFunc("DELETE /users/me/avatar", app.requireAuth(app.deleteAvatarHandler))
	mux.HandleFunc("GET /users/{id}/avatar", app.getAvatarHandler)

	mux.HandleFunc("POST /tasks", app.requireAuth(app.createTaskHandler))
	mux.HandleFunc("GET /tasks", app.requireAuth(app.getTasksHandler))
	mux.HandleFunc("GET /tasks/{id}", app.requireAuth(app.getTaskHandler))
	mux.HandleFunc("PATCH /tasks/{id}", app.requireAuth(app.updateTaskHandler))
	mux.HandleFunc("DELETE /tasks/{id}", app.requireAuth(app.deleteTaskHandler))

	var handler http.Handler = mux
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	handler = app.enableCORS(handler)
	return app.logRequests(handler)
}
