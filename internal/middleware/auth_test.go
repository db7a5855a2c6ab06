package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

func TestIdentify(t *testing.T) {
	creds := services.NewCredentials("secret", time.Hour)
	token, err := creds.IssueToken(&models.User{ID: "u1", Username: "ana", Email: "ana@example.com"})
	require.NoError(t, err)

	var got auth.Identity
	handler := Identify(creds)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name     string
		header   string
		username string
	}{
		{"valid bearer", "Bearer " + token, "ana"},
		{"lowercase scheme", "bearer " + token, "ana"},
		{"no header", "", ""},
		{"wrong scheme", "Basic " + token, ""},
		{"garbage token", "Bearer nope", ""},
		{"extra parts", "Bearer " + token + " more", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = auth.Identity{}
			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tc.username != "", got.IsAuthenticated())
			assert.Equal(t, tc.username, got.Username())
		})
	}
}
