// Package oauth talks to the external identity provider. The provider is an
// interface so the onboarding state machine is testable without a live
// GitHub app.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// Identity is what the provider tells us about an authenticated user.
type Identity struct {
	Provider string `json:"provider"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// Provider exchanges an authorization code for an authenticated identity.
type Provider interface {
	// AuthorizeURL builds the outbound redirect carrying the given state.
	AuthorizeURL(state string) string
	// Exchange trades the callback code for the user's identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// GitHubProvider implements Provider against the GitHub OAuth API.
type GitHubProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string

	// Overridable in tests.
	AuthBaseURL string
	APIBaseURL  string

	httpClient *http.Client
	breaker    *utils.CircuitBreaker
}

// NewGitHubProvider creates a provider with bounded timeouts and a circuit
// breaker around the provider calls.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		AuthBaseURL:  "https://github.com",
		APIBaseURL:   "https://api.github.com",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		breaker:      utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// AuthorizeURL builds the GitHub authorization redirect.
func (p *GitHubProvider) AuthorizeURL(state string) string {
	query := url.Values{}
	query.Set("client_id", p.clientID)
	query.Set("redirect_uri", p.redirectURL)
	query.Set("scope", "read:user user:email")
	query.Set("process", "login")
	query.Set("state", state)
	return p.AuthBaseURL + "/login/oauth/authorize?" + query.Encode()
}

// Exchange trades the callback code for the authenticated GitHub identity.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	var identity *Identity
	err := p.breaker.Call(func() error {
		token, err := p.fetchAccessToken(ctx, code)
		if err != nil {
			return err
		}
		identity, err = p.fetchUser(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (p *GitHubProvider) fetchAccessToken(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", p.redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.AuthBaseURL+"/login/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("token exchange rejected: %s", payload.ErrorDescription)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no access token")
	}
	return payload.AccessToken, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, token string) (*Identity, error) {
	var user struct {
		Login string `json:"login"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := p.getJSON(ctx, token, "/user", &user); err != nil {
		return nil, err
	}
	if user.Login == "" {
		return nil, fmt.Errorf("provider returned no login")
	}

	identity := &Identity{
		Provider: "github",
		Login:    user.Login,
		Email:    user.Email,
		Name:     user.Name,
	}

	// The public email is often hidden; ask for the verified primary.
	if identity.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := p.getJSON(ctx, token, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					identity.Email = e.Email
					break
				}
			}
		}
	}

	return identity, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider %s returned status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
