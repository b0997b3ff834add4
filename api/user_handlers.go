package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/lib/pq"
)

var errEditConflict = errors.New("unable to update the record due to an edit conflict, please try again")

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      int    `json:"age"`
	}
	err := readJSON(r, &input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkName(input.Name)
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	v.checkAge(input.Age)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		app.logger.Err(err).Msg("could not hash password")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	u := &user{
		Name:         input.Name,
		Email:        input.Email,
		Age:          input.Age,
		PasswordHash: hash,
	}
	err = app.storage.insertUser(u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			writeError(w, errors.New("a user with this email address already exists"), http.StatusBadRequest)
			return
		}
		app.logger.Err(err).Msg("could not insert user")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	tokenStr, err := app.issueAndStoreToken(u)
	if err != nil {
		app.logger.Err(err).Msg("could not issue token")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	app.mailer.sendWelcome(u)

	writeJSON(w, struct {
		User  *user  `json:"user"`
		Token string `json:"token"`
	}{User: u, Token: tokenStr}, http.StatusCreated)
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := readJSON(r, &input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	u, err := app.storage.getUserByEmail(input.Email)
	if err != nil {
		app.logger.Err(err).Msg("could not look up user")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	// same response whether the email is unknown or the password is wrong
	if u == nil || !verifyPassword(input.Password, u.PasswordHash) {
		writeError(w, errors.New("unable to login"), http.StatusBadRequest)
		return
	}

	tokenStr, err := app.issueAndStoreToken(u)
	if err != nil {
		app.logger.Err(err).Msg("could not issue token")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		User  *user  `json:"user"`
		Token string `json:"token"`
	}{User: u, Token: tokenStr}, http.StatusOK)
}

func (app *application) issueAndStoreToken(u *user) (string, error) {
	tokenStr, err := issueToken(u.ID, app.config.jwtSecret, app.config.tokenTTL)
	if err != nil {
		return "", err
	}
	err = app.storage.insertToken(u.ID, tokenHash(tokenStr))
	if err != nil {
		return "", err
	}
	return tokenStr, nil
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	tokenStr := getTokenFromRequest(r)
	err := app.storage.deleteToken(u.ID, tokenHash(tokenStr))
	if err != nil {
		app.logger.Err(err).Msg("could not delete token")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct{}{}, http.StatusOK)
}

func (app *application) logoutAllUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	err := app.storage.deleteTokensForUser(u.ID)
	if err != nil {
		app.logger.Err(err).Msg("could not delete tokens")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct{}{}, http.StatusOK)
}

func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, getUserFromRequest(r), http.StatusOK)
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	u, err := app.storage.getUserByID(id)
	if err != nil {
		app.logger.Err(err).Msg("could not look up user")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, u, http.StatusOK)
}

func (app *application) updateCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Age      *int    `json:"age"`
	}
	err := readJSON(r, &input)
	if err != nil {
		writeError(w, errors.New("invalid updates"), http.StatusBadRequest)
		return
	}

	u := getUserFromRequest(r)
	v := newValidator()
	if input.Name != nil {
		v.checkName(*input.Name)
	}
	if input.Email != nil {
		v.checkEmail(*input.Email)
	}
	if input.Password != nil {
		v.checkPassword(*input.Password)
	}
	if input.Age != nil {
		v.checkAge(*input.Age)
	}
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.Age != nil {
		u.Age = *input.Age
	}
	if input.Password != nil {
		// a changed secret is rehashed, never stored raw
		hash, err := hashPassword(*input.Password)
		if err != nil {
			app.logger.Err(err).Msg("could not hash password")
			writeError(w, errInternal, http.StatusInternalServerError)
			return
		}
		u.PasswordHash = hash
	}

	err = app.storage.updateUser(u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			writeError(w, errors.New("a user with this email address already exists"), http.StatusBadRequest)
			return
		}
		// no row matched id+version: a concurrent update won the race
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errEditConflict, http.StatusConflict)
			return
		}
		app.logger.Err(err).Msg("could not update user")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, u, http.StatusOK)
}

func (app *application) deleteCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	err := app.storage.deleteUser(u)
	if err != nil {
		app.logger.Err(err).Msg("could not delete user")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	app.mailer.sendFarewell(u)
	writeJSON(w, u, http.StatusOK)
}
