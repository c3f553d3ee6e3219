package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	w := doRequest(t, r, http.MethodPost, "/user", "", map[string]any{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, "/user", "", map[string]any{
		"username": "carol",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The issued token opens the protected routes
	w = doRequest(t, r, http.MethodGet, "/project", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"numeric username", map[string]any{"username": "carol1", "email": "c@example.com", "password": "password1"}},
		{"bad email", map[string]any{"username": "carol", "email": "not-an-email", "password": "password1"}},
		{"short password", map[string]any{"username": "carol", "email": "c@example.com", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/user", "", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	createUser(t, db, "carol")

	w := doRequest(t, r, http.MethodGet, "/user", "", map[string]any{
		"username": "carol",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
