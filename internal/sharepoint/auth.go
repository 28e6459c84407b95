package sharepoint

import (
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"partner-portal-backend/internal/shared/telemetry"
)

const (
	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	assertionLifetime   = 10 * time.Minute
	assertionBackdate   = 5 * time.Second
	// Tokens are reused until this close to expiry.
	tokenExpirySkew = 60 * time.Second
)

// AuthError indicates token acquisition failed. Callers must not retry the
// specific file operation; the whole migration run is deferred instead.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "token acquisition failed"
	}
	return "token acquisition failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenProviderConfig configures the client-assertion flow.
type TokenProviderConfig struct {
	TokenEndpoint  string
	ClientID       string
	CertificatePEM string
	PrivateKeyPEM  string
	// Thumbprint is the pre-computed x5t value used when no certificate PEM
	// is configured.
	Thumbprint string
	// ClientSecret enables the plain client-credentials fallback grant.
	ClientSecret string
	KeyID        string
	HTTPClient   *http.Client
}

type cachedToken struct {
	token  string
	expiry time.Time
}

// TokenProvider exchanges a signed client assertion for bearer tokens and
// caches them per scope until near expiry.
type TokenProvider struct {
	cfg     TokenProviderConfig
	key     *rsa.PrivateKey
	certDER []byte
	http    *http.Client
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedToken
}

// NewTokenProvider parses the configured key material. A provider without a
// private key can still operate on the client-secret fallback alone.
func NewTokenProvider(cfg TokenProviderConfig) (*TokenProvider, error) {
	if strings.TrimSpace(cfg.TokenEndpoint) == "" {
		return nil, fmt.Errorf("token endpoint is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("client id is required")
	}

	p := &TokenProvider{
		cfg:   cfg,
		http:  cfg.HTTPClient,
		now:   time.Now,
		cache: make(map[string]cachedToken),
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: 30 * time.Second}
	}

	if strings.TrimSpace(cfg.PrivateKeyPEM) != "" {
		key, err := parsePrivateKey([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		p.key = key
	}
	if strings.TrimSpace(cfg.CertificatePEM) != "" {
		der, err := parseCertificateDER([]byte(cfg.CertificatePEM))
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		p.certDER = der
	}
	if p.key == nil && strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("either a private key or a client secret is required")
	}

	return p, nil
}

// Token returns a bearer token for the scope, reusing a cached one until it
// is within tokenExpirySkew of expiry.
func (p *TokenProvider) Token(ctx context.Context, scope string) (string, time.Time, error) {
	now := p.now()

	p.mu.Lock()
	if cached, ok := p.cache[scope]; ok && cached.expiry.After(now.Add(tokenExpirySkew)) {
		p.mu.Unlock()
		return cached.token, cached.expiry, nil
	}
	p.mu.Unlock()

	token, expiry, err := p.fetch(ctx, scope)
	if err != nil {
		return "", time.Time{}, err
	}

	p.mu.Lock()
	p.cache[scope] = cachedToken{token: token, expiry: expiry}
	p.mu.Unlock()
	return token, expiry, nil
}

func (p *TokenProvider) fetch(ctx context.Context, scope string) (string, time.Time, error) {
	var assertErr error
	if p.key != nil {
		token, expiry, err := p.fetchWithAssertion(ctx, scope)
		if err == nil {
			return token, expiry, nil
		}
		assertErr = err
		telemetry.Warn("sharepoint.token.assertion_failed", map[string]any{
			"scope": scope,
			"err":   err.Error(),
		})
	}

	if strings.TrimSpace(p.cfg.ClientSecret) != "" {
		token, expiry, err := p.fetchWithSecret(ctx, scope)
		if err == nil {
			return token, expiry, nil
		}
		if assertErr == nil {
			assertErr = err
		}
	}

	if assertErr == nil {
		assertErr = fmt.Errorf("no credential path configured")
	}
	return "", time.Time{}, &AuthError{Err: assertErr}
}

func (p *TokenProvider) fetchWithAssertion(ctx context.Context, scope string) (string, time.Time, error) {
	assertion, err := p.buildAssertion()
	if err != nil {
		return "", time.Time{}, err
	}

	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_id":             {p.cfg.ClientID},
		"scope":                 {scope},
		"client_assertion_type": {clientAssertionType},
		"client_assertion":      {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", time.Time{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response missing access_token")
	}

	expiry := p.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return out.AccessToken, expiry, nil
}

func (p *TokenProvider) fetchWithSecret(ctx context.Context, scope string) (string, time.Time, error) {
	cc := clientcredentials.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		TokenURL:     p.cfg.TokenEndpoint,
		Scopes:       []string{scope},
	}
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, p.http))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("client secret grant: %w", err)
	}
	return tok.AccessToken, tok.Expiry, nil
}

// buildAssertion constructs the signed RS256 client assertion.
func (p *TokenProvider) buildAssertion() (string, error) {
	now := p.now().UTC()
	claims := jwt.MapClaims{
		"iss": p.cfg.ClientID,
		"sub": p.cfg.ClientID,
		"aud": p.cfg.TokenEndpoint,
		"jti": uuid.NewString(),
		"nbf": now.Add(-assertionBackdate).Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	x5t, x5tS256 := p.thumbprints()
	if x5t != "" {
		token.Header["x5t"] = x5t
	}
	if x5tS256 != "" {
		token.Header["x5t#S256"] = x5tS256
	}
	if p.cfg.KeyID != "" {
		token.Header["kid"] = p.cfg.KeyID
	}

	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

// thumbprints returns the SHA-1 and SHA-256 certificate thumbprints,
// base64url without padding. With no certificate configured, the pre-supplied
// thumbprint stands in for x5t and x5t#S256 is omitted.
func (p *TokenProvider) thumbprints() (string, string) {
	if len(p.certDER) == 0 {
		return strings.TrimSpace(p.cfg.Thumbprint), ""
	}
	s1 := sha1.Sum(p.certDER)
	s256 := sha256.Sum256(p.certDER)
	return base64.RawURLEncoding.EncodeToString(s1[:]), base64.RawURLEncoding.EncodeToString(s256[:])
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("PKCS8 key is not RSA")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func parseCertificateDER(pemBytes []byte) ([]byte, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, err
	}
	return block.Bytes, nil
}
