package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/storefront-next/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtBearerGrantType   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	defaultAssertionTTL  = 3 * time.Minute
	defaultTokenLifetime = 10 * time.Minute
	tokenExpiryMargin    = 30 * time.Second
)

// tokenSource 用 JWT bearer 断言换取平台访问令牌，并在过期前复用
type tokenSource struct {
	cfg    config.GatewayAuthConfig
	client *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(cfg config.GatewayAuthConfig, client *http.Client) (*tokenSource, error) {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, errors.New("gateway auth token_url is empty")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("gateway auth client_id is empty")
	}
	if strings.TrimSpace(cfg.PrivateKeyPath) == "" {
		return nil, errors.New("gateway auth private_key_path is empty")
	}
	return &tokenSource{cfg: cfg, client: client}, nil
}

// Token 返回有效的访问令牌，必要时重新换取
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expires.Add(-tokenExpiryMargin)) {
		return s.token, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", fmt.Errorf("sign gateway assertion failed: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode gateway token response failed: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("gateway token response missing access_token")
	}

	lifetime := defaultTokenLifetime
	if payload.ExpiresIn > 0 {
		lifetime = time.Duration(payload.ExpiresIn) * time.Second
	}
	s.token = payload.AccessToken
	s.expires = time.Now().Add(lifetime)
	return s.token, nil
}

func (s *tokenSource) signAssertion() (string, error) {
	pemBytes, err := os.ReadFile(s.cfg.PrivateKeyPath)
	if err != nil {
		return "", err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return "", err
	}

	ttl := defaultAssertionTTL
	if s.cfg.AssertionTTLSec > 0 {
		ttl = time.Duration(s.cfg.AssertionTTLSec) * time.Second
	}
	subject := strings.TrimSpace(s.cfg.Subject)
	if subject == "" {
		subject = s.cfg.ClientID
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.ClientID,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}
