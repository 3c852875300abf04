// Package auth mints the ephemeral credentials used to authorize one realtime
// transport handshake.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CredentialError reports a failed or malformed credential mint.
// StatusCode carries the upstream HTTP status when one was received.
type CredentialError struct {
	StatusCode int
	Reason     string
}

func (e *CredentialError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("credential mint failed (upstream %d): %s", e.StatusCode, e.Reason)
	}
	return "credential mint failed: " + e.Reason
}

// Credential is a one-time short-lived bearer secret.
type Credential struct {
	Secret    string
	ExpiresAt int64
}

// Minter requests ephemeral client secrets from the realtime provider.
// The long-lived API key never leaves this package.
type Minter struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewMinter creates a Minter. baseURL is the provider API root.
func NewMinter(apiKey, baseURL, model string, timeout time.Duration) *Minter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Minter{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// mintResponse accepts both upstream shapes: a nested client_secret object or
// a flat value/expires_at pair.
type mintResponse struct {
	ClientSecret *struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// Mint requests a fresh ephemeral credential.
func (m *Minter) Mint(ctx context.Context) (Credential, error) {
	if m.apiKey == "" {
		return Credential{}, &CredentialError{Reason: "no API key configured"}
	}

	payload, err := json.Marshal(map[string]any{
		"session": map[string]any{
			"type":  "realtime",
			"model": m.model,
		},
	})
	if err != nil {
		return Credential{}, fmt.Errorf("encode mint request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/realtime/client_secrets", bytes.NewReader(payload))
	if err != nil {
		return Credential{}, fmt.Errorf("build mint request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credential{}, &CredentialError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := "API request failed"
		if resp.StatusCode == http.StatusUnauthorized {
			reason = "invalid API key"
		}
		return Credential{}, &CredentialError{StatusCode: resp.StatusCode, Reason: reason}
	}

	var data mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Credential{}, &CredentialError{Reason: "malformed mint response: " + err.Error()}
	}

	cred := Credential{Secret: data.Value, ExpiresAt: data.ExpiresAt}
	if data.ClientSecret != nil {
		cred = Credential{Secret: data.ClientSecret.Value, ExpiresAt: data.ClientSecret.ExpiresAt}
	}
	if cred.Secret == "" {
		return Credential{}, &CredentialError{Reason: "mint response carried no secret"}
	}
	if cred.ExpiresAt == 0 {
		cred.ExpiresAt = time.Now().Add(time.Hour).UnixMilli()
	}
	return cred, nil
}

// Validate checks that a minted secret is usable before any handshake is
// attempted: non-empty and carrying the expected prefix.
func Validate(secret, expectedPrefix string) error {
	if secret == "" {
		return &CredentialError{Reason: "empty client secret"}
	}
	if expectedPrefix != "" && !strings.HasPrefix(secret, expectedPrefix) {
		return &CredentialError{Reason: fmt.Sprintf(
			"unexpected secret format: want prefix %q, got %q...", expectedPrefix, truncateSecret(secret))}
	}
	return nil
}

// truncateSecret keeps diagnostics from leaking a full credential.
func truncateSecret(secret string) string {
	if len(secret) <= 6 {
		return secret
	}
	return secret[:6]
}
