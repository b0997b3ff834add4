package main

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	maxAvatarBytes = 1 << 20
	avatarSize     = 250
)

// processAvatar normalizes whatever the client sent into a 250x250 PNG so
// the download side can always serve image/png.
func processAvatar(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("could not decode image")
	}
	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func allowedAvatarName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (app *application) uploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes*2)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, errors.New("please upload an image in the avatar field"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, errors.New("image must be atmost 1MB"), http.StatusBadRequest)
		return
	}
	if !allowedAvatarName(header.Filename) {
		writeError(w, errors.New("please upload a jpg, jpeg or png image"), http.StatusBadRequest)
		return
	}

	data := make([]byte, 0, header.Size)
	buf := bytes.NewBuffer(data)
	_, err = buf.ReadFrom(file)
	if err != nil {
		writeError(w, errors.New("could not read image"), http.StatusBadRequest)
		return
	}

	avatar, err := processAvatar(buf.Bytes())
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	u := getUserFromRequest(r)
	err = app.storage.setAvatar(u.ID, avatar)
	if err != nil {
		app.logger.Err(err).Msg("could not store avatar")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct{}{}, http.StatusOK)
}

func (app *application) getAvatarHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	avatar, err := app.storage.getAvatar(id)
	if err != nil {
		app.logger.Err(err).Msg("could not load avatar")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if len(avatar) == 0 {
		writeError(w, errors.New("not found"), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(avatar)
}

func (app *application) deleteAvatarHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	err := app.storage.setAvatar(u.ID, nil)
	if err != nil {
		app.logger.Err(err).Msg("could not delete avatar")
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct{}{}, http.StatusOK)
}
