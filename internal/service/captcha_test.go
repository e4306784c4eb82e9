package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theta-web/internal/config"
)

func TestNewRecaptchaVerifier_DisabledWithoutSecret(t *testing.T) {
	assert.Nil(t, NewRecaptchaVerifier(config.CaptchaConfig{}, nil))
}

func TestRecaptchaVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("response") {
		case "good":
			assert.Equal(t, "198.51.100.7", r.PostForm.Get("remoteip"))
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error-codes": []string{"invalid-input-response"}})
		}
	}))
	defer srv.Close()

	v := NewRecaptchaVerifier(config.CaptchaConfig{SecretKey: "s3cret", VerifyURL: srv.URL, Timeout: time.Second}, nil)
	require.NotNil(t, v)
	ctx := context.Background()

	assert.NoError(t, v.Verify(ctx, "good", "198.51.100.7"))

	err := v.Verify(ctx, "bad", "")
	require.ErrorIs(t, err, ErrCaptchaRejected)
	assert.Contains(t, err.Error(), "invalid-input-response")

	err = v.Verify(ctx, "broken", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCaptchaRejected)
}

func TestRecaptchaVerifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewRecaptchaVerifier(config.CaptchaConfig{SecretKey: "s3cret", VerifyURL: url, Timeout: time.Second}, nil)
	err := v.Verify(context.Background(), "tok", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCaptchaRejected)
}
