package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/theta-web/internal/config"
)

// ErrCaptchaRejected is returned when the verification service answers but
// does not accept the token.
var ErrCaptchaRejected = errors.New("captcha rejected")

// CaptchaVerifier checks a client supplied CAPTCHA token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RecaptchaVerifier calls Google's siteverify endpoint.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewRecaptchaVerifier returns nil when no secret is configured; callers
// treat a nil verifier as "CAPTCHA disabled".
func NewRecaptchaVerifier(cfg config.CaptchaConfig, client *http.Client) *RecaptchaVerifier {
	if cfg.SecretKey == "" {
		return nil
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RecaptchaVerifier{secret: cfg.SecretKey, verifyURL: cfg.VerifyURL, client: client}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token and reports ErrCaptchaRejected when Google says
// no.  Transport and decoding problems are returned wrapped.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify: unexpected status %d", resp.StatusCode)
	}
	var out siteVerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return fmt.Errorf("decode siteverify response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrCaptchaRejected, strings.Join(out.ErrorCodes, ","))
	}
	return nil
}
