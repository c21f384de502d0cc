package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newStubGitHub(t *testing.T, tokenHandler, apiHandler http.HandlerFunc) *GitHubProvider {
	t.Helper()

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/oauth/access_token" {
			http.NotFound(w, r)
			return
		}
		tokenHandler(w, r)
	}))
	t.Cleanup(auth.Close)

	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	p := NewGitHubProvider("client-id", "client-secret", "http://localhost/callback")
	p.AuthBaseURL = auth.URL
	p.APIBaseURL = api.URL
	return p
}

func TestAuthorizeURL(t *testing.T) {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost/callback")

	raw := p.AuthorizeURL("corr-123")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.HasPrefix(raw, "https://github.com/login/oauth/authorize?") {
		t.Fatalf("unexpected base: %s", raw)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "corr-123" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("redirect_uri") != "http://localhost/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestExchangeSuccess(t *testing.T) {
	p := newStubGitHub(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.FormValue("code") != "good-code" {
				t.Errorf("code = %q", r.FormValue("code"))
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_token"})
		},
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer gho_token" {
				t.Errorf("authorization = %q", got)
			}
			switch r.URL.Path {
			case "/user":
				json.NewEncoder(w).Encode(map[string]string{
					"login": "octocat", "email": "octo@example.com", "name": "The Octocat",
				})
			default:
				http.NotFound(w, r)
			}
		})

	identity, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if identity.Login != "octocat" || identity.Email != "octo@example.com" {
		t.Fatalf("identity = %+v", identity)
	}
	if identity.Provider != "github" {
		t.Fatalf("provider = %q", identity.Provider)
	}
}

func TestExchangeFallsBackToEmailList(t *testing.T) {
	p := newStubGitHub(t,
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_token"})
		},
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/user":
				json.NewEncoder(w).Encode(map[string]string{"login": "shy", "name": "Shy Dev"})
			case "/user/emails":
				json.NewEncoder(w).Encode([]map[string]interface{}{
					{"email": "old@example.com", "primary": false, "verified": true},
					{"email": "shy@example.com", "primary": true, "verified": true},
				})
			default:
				http.NotFound(w, r)
			}
		})

	identity, err := p.Exchange(context.Background(), "code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if identity.Email != "shy@example.com" {
		t.Fatalf("email = %q, want the verified primary", identity.Email)
	}
}

func TestExchangeRejectedCode(t *testing.T) {
	p := newStubGitHub(t,
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{
				"error": "bad_verification_code", "error_description": "The code is incorrect",
			})
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("API must not be called when token exchange fails")
		})

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("rejected code should surface an error")
	}
}

func TestExchangeProviderDown(t *testing.T) {
	p := newStubGitHub(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		func(w http.ResponseWriter, r *http.Request) {})

	if _, err := p.Exchange(context.Background(), "code"); err == nil {
		t.Fatal("provider outage should surface an error")
	}
}
