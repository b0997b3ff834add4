package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessAvatarNormalizesToPNG(t *testing.T) {
	data := testImagePNG(t, 600, 400)

	out, err := processAvatar(data)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, avatarSize, bounds.Dx())
	assert.Equal(t, avatarSize, bounds.Dy())
}

func TestProcessAvatarRejectsGarbage(t *testing.T) {
	_, err := processAvatar([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestAllowedAvatarName(t *testing.T) {
	assert.True(t, allowedAvatarName("me.png"))
	assert.True(t, allowedAvatarName("me.JPG"))
	assert.True(t, allowedAvatarName("photo.jpeg"))
	assert.False(t, allowedAvatarName("resume.pdf"))
	assert.False(t, allowedAvatarName("noextension"))
}

func TestUploadAvatar(t *testing.T) {
	app, mock := newTestApplication(t)
	tok, err := issueToken(1, testSecret, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "avatar.png")
	require.NoError(t, os.WriteFile(path, testImagePNG(t, 64, 64), 0o600))

	expectAuth(mock, user{ID: 1, Name: "Ann", Version: 1}, tok)
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	apitest.New().
		Handler(composeRoutes(app)).
		Post("/users/me/avatar").
		Header("Authorization", "Bearer "+tok).
		MultipartFile("avatar", path).
		Expect(t).
		Status(http.StatusOK).
		End()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAvatarWrongType(t *testing.T) {
	app, mock := newTestApplication(t)
	tok, err := issueToken(1, testSecret, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	expectAuth(mock, user{ID: 1, Name: "Ann", Version: 1}, tok)

	apitest.New().
		Handler(composeRoutes(app)).
		Post("/users/me/avatar").
		Header("Authorization", "Bearer "+tok).
		MultipartFile("avatar", path).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestGetAvatar(t *testing.T) {
	app, mock := newTestApplication(t)
	avatar, err := processAvatar(testImagePNG(t, 64, 64))
	require.NoError(t, err)
	mock.ExpectQuery("SELECT avatar FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"avatar"}).AddRow(avatar))

	apitest.New().
		Handler(composeRoutes(app)).
		Get("/users/7/avatar").
		Expect(t).
		Status(http.StatusOK).
		Header("Content-Type", "image/png").
		End()
}

func TestGetAvatarMissing(t *testing.T) {
	app, mock := newTestApplication(t)
	mock.ExpectQuery("SELECT avatar FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"avatar"}).AddRow(nil))

	apitest.New().
		Handler(composeRoutes(app)).
		Get("/users/7/avatar").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestDeleteAvatar(t *testing.T) {
	app, mock := newTestApplication(t)
	tok, err := issueToken(1, testSecret, 0)
	require.NoError(t, err)
	expectAuth(mock, user{ID: 1, Name: "Ann", Version: 1}, tok)
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	apitest.New().
		Handler(composeRoutes(app)).
		Delete("/users/me/avatar").
		Header("Authorization", "Bearer "+tok).
		Expect(t).
		Status(http.StatusOK).
		End()
	require.NoError(t, mock.ExpectationsWereMet())
}
