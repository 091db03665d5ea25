package provider

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"wayfarer/pkg/client"
	"wayfarer/pkg/logger"
)

type Config struct {
	BaseURL      string
	TokenPath    string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Gateway owns the bearer-token lifecycle for the booking provider.
// The token lives only for the process lifetime and is treated as
// expired reactively: a 401 on any call discards it, a fresh one is
// acquired, and the original call is retried exactly once.
type Gateway struct {
	http      *client.HttpClient
	tokenPath string
	clientID  string
	secret    string
	log       *logger.Logger

	mu    sync.Mutex
	token string
}

func New(cfg Config, log *logger.Logger) *Gateway {
	return &Gateway{
		http:      client.NewHttpClient(cfg.BaseURL, cfg.Timeout),
		tokenPath: cfg.TokenPath,
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		log:       log,
	}
}

// currentToken returns the cached token, acquiring one if none is held.
// The mutex also collapses concurrent refreshes into a single fetch.
func (g *Gateway) currentToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" {
		return g.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.secret)

	resp, err := g.http.POSTForm(ctx, g.tokenPath, form, nil)
	if err != nil {
		return "", &Error{Op: "token", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "token", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.DecodeJSON(&tokenResp); err != nil {
		return "", &Error{Op: "token", StatusCode: resp.StatusCode, Err: err}
	}
	if tokenResp.AccessToken == "" {
		return "", &Error{Op: "token", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	g.token = tokenResp.AccessToken
	g.log.Info("Provider access token acquired")
	return g.token, nil
}

// invalidate drops the cached token only when it is still the one the
// failed call used, so a concurrent refresh is not thrown away.
func (g *Gateway) invalidate(stale string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == stale {
		g.token = ""
	}
}

func (g *Gateway) get(ctx context.Context, op, path string) (*client.Response, error) {
	return g.call(ctx, op, func(token string) (*client.Response, error) {
		return g.http.GET(ctx, path, bearerHeader(token))
	})
}

func (g *Gateway) post(ctx context.Context, op, path string, payload any) (*client.Response, error) {
	return g.call(ctx, op, func(token string) (*client.Response, error) {
		return g.http.POST(ctx, path, payload, bearerHeader(token))
	})
}

func (g *Gateway) call(ctx context.Context, op string, do func(token string) (*client.Response, error)) (*client.Response, error) {
	token, err := g.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := do(token)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		g.log.Warn("Provider rejected token, refreshing and retrying once", "op", op)
		g.invalidate(token)

		token, err = g.currentToken(ctx)
		if err != nil {
			return nil, err
		}

		resp, err = do(token)
		if err != nil {
			return nil, &Error{Op: op, Err: err}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: resp.Body, Err: ErrAuthExpired}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return resp, nil
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
