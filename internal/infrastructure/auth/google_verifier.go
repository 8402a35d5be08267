package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/you/qnaforum/domain"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v1/certs"

// GoogleVerifier implements domain.FederatedVerifier for Google ID tokens.
// The keyfunc is injected at construction so tests can sign tokens with a
// stub issuer instead of Google's rotating certificates.
type GoogleVerifier struct {
	audience string
	issuers  map[string]struct{}
	keyfunc  jwt.Keyfunc
}

// NewGoogleVerifier creates a verifier that trusts the given issuer hosts
// and expects the given audience. A nil keyfunc falls back to fetching
// Google's published signing certificates.
func NewGoogleVerifier(audience string, issuers []string, keyfunc jwt.Keyfunc) *GoogleVerifier {
	set := make(map[string]struct{}, len(issuers))
	for _, iss := range issuers {
		set[iss] = struct{}{}
	}
	if keyfunc == nil {
		keyfunc = NewGoogleKeyfunc(googleCertsURL, time.Hour)
	}
	return &GoogleVerifier{audience: audience, issuers: set, keyfunc: keyfunc}
}

// Verify implements domain.FederatedVerifier. ErrInvalidIssuer means the
// token verified cryptographically but was issued by an untrusted party;
// any other failure is a format/verification failure that callers may
// treat as "not a federated token".
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*domain.FederatedIdentity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(rawToken, claims, v.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	issuer, _ := claims["iss"].(string)
	if _, ok := v.issuers[issuer]; !ok {
		return nil, domain.ErrInvalidIssuer
	}

	subject, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if subject == "" || email == "" {
		return nil, domain.ErrInvalidToken
	}

	identity := &domain.FederatedIdentity{
		Subject: subject,
		Email:   email,
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := claims["picture"].(string); ok {
		identity.Picture = picture
	}
	return identity, nil
}

// NewGoogleKeyfunc returns a jwt.Keyfunc resolving key IDs against
// Google's published x509 certificates, cached for the refresh interval.
func NewGoogleKeyfunc(certsURL string, refresh time.Duration) jwt.Keyfunc {
	cache := &certCache{url: certsURL, refresh: refresh}
	return func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		pem, err := cache.cert(kid)
		if err != nil {
			return nil, err
		}
		return jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	}
}

type certCache struct {
	url     string
	refresh time.Duration

	mu      sync.Mutex
	certs   map[string]string
	fetched time.Time
}

func (c *certCache) cert(kid string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pem, ok := c.certs[kid]; ok && time.Since(c.fetched) < c.refresh {
		return pem, nil
	}
	if err := c.fetchLocked(); err != nil {
		return "", err
	}
	pem, ok := c.certs[kid]
	if !ok {
		return "", fmt.Errorf("unknown signing key %q", kid)
	}
	return pem, nil
}

func (c *certCache) fetchLocked() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch signing certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signing certs endpoint returned %d", resp.StatusCode)
	}

	certs := map[string]string{}
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("failed to decode signing certs: %w", err)
	}
	c.certs = certs
	c.fetched = time.Now()
	return nil
}
