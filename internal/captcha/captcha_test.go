package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Disabled(t *testing.T) {
	v := NewVerifier("", "http://unused")
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "sekrit", r.FormValue("secret"))
		assert.Equal(t, "tok-123", r.FormValue("response"))
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	v := NewVerifier("sekrit", srv.URL)
	assert.NoError(t, v.Verify(context.Background(), "tok-123", "1.2.3.4"))
}

func TestVerify_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":     false,
			"error-codes": []string{"invalid-input-response"},
		})
	}))
	defer srv.Close()

	v := NewVerifier("sekrit", srv.URL)
	err := v.Verify(context.Background(), "bad-token", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerify_MissingToken(t *testing.T) {
	v := NewVerifier("sekrit", "http://unused")
	assert.Error(t, v.Verify(context.Background(), "", ""))
}
