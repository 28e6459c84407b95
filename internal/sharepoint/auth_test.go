package sharepoint

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type testCredentials struct {
	certPEM string
	keyPEM  string
	key     *rsa.PrivateKey
	certDER []byte
}

func newTestCredentials(t *testing.T) testCredentials {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "partner-portal-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	return testCredentials{
		certPEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})),
		keyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})),
		key:     key,
		certDER: certDER,
	}
}

func TestTokenAssertionFlow(t *testing.T) {
	creds := newTestCredentials(t)

	var assertion, grantType, assertionType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		grantType = r.PostFormValue("grant_type")
		assertionType = r.PostFormValue("client_assertion_type")
		assertion = r.PostFormValue("client_assertion")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"spo-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	p, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint:  srv.URL,
		ClientID:       "client-1",
		CertificatePEM: creds.certPEM,
		PrivateKeyPEM:  creds.keyPEM,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	token, expiry, err := p.Token(context.Background(), "https://contoso.sharepoint.com/.default")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "spo-token" {
		t.Fatalf("token: %q", token)
	}
	if !expiry.After(time.Now().Add(30 * time.Minute)) {
		t.Fatalf("expiry too soon: %v", expiry)
	}
	if grantType != "client_credentials" {
		t.Fatalf("grant_type: %q", grantType)
	}
	if assertionType != "urn:ietf:params:oauth:client-assertion-type:jwt-bearer" {
		t.Fatalf("client_assertion_type: %q", assertionType)
	}

	parsed, err := jwt.Parse(assertion, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodRS256 {
			return nil, errors.New("unexpected signing method")
		}
		return &creds.key.PublicKey, nil
	}, jwt.WithAudience(srv.URL), jwt.WithIssuer("client-1"))
	if err != nil {
		t.Fatalf("parse assertion: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "client-1" {
		t.Fatalf("sub claim: %v", claims["sub"])
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Fatal("jti claim missing")
	}

	s1 := sha1.Sum(creds.certDER)
	wantX5T := base64.RawURLEncoding.EncodeToString(s1[:])
	if parsed.Header["x5t"] != wantX5T {
		t.Fatalf("x5t header: %v, want %s", parsed.Header["x5t"], wantX5T)
	}
	s256 := sha256.Sum256(creds.certDER)
	wantS256 := base64.RawURLEncoding.EncodeToString(s256[:])
	if parsed.Header["x5t#S256"] != wantS256 {
		t.Fatalf("x5t#S256 header: %v, want %s", parsed.Header["x5t#S256"], wantS256)
	}
}

func TestTokenCachedPerScopeUntilNearExpiry(t *testing.T) {
	creds := newTestCredentials(t)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"spo-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	p, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint:  srv.URL,
		ClientID:       "client-1",
		CertificatePEM: creds.certPEM,
		PrivateKeyPEM:  creds.keyPEM,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	base := time.Now()
	p.now = func() time.Time { return base }

	if _, _, err := p.Token(context.Background(), "scope-a"); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if _, _, err := p.Token(context.Background(), "scope-a"); err != nil {
		t.Fatalf("cached token: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 endpoint hit for a cached scope, got %d", hits)
	}

	// A different scope misses the cache.
	if _, _, err := p.Token(context.Background(), "scope-b"); err != nil {
		t.Fatalf("second scope token: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 endpoint hits across scopes, got %d", hits)
	}

	// Within the expiry skew window the token is refetched.
	p.now = func() time.Time { return base.Add(time.Hour - 30*time.Second) }
	if _, _, err := p.Token(context.Background(), "scope-a"); err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected refetch near expiry, got %d hits", hits)
	}
}

func TestTokenClientSecretFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"secret-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	p, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint: srv.URL,
		ClientID:      "client-1",
		ClientSecret:  "s3cret",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	token, _, err := p.Token(context.Background(), "scope-a")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "secret-token" {
		t.Fatalf("token: %q", token)
	}
}

func TestTokenFailureWrapsAuthError(t *testing.T) {
	creds := newTestCredentials(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	p, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint:  srv.URL,
		ClientID:       "client-1",
		CertificatePEM: creds.certPEM,
		PrivateKeyPEM:  creds.keyPEM,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	_, _, err = p.Token(context.Background(), "scope-a")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestThumbprintFallbackWithoutCertificate(t *testing.T) {
	creds := newTestCredentials(t)

	p, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint: "https://login.example/token",
		ClientID:      "client-1",
		PrivateKeyPEM: creds.keyPEM,
		Thumbprint:    "precomputed-x5t",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	x5t, s256 := p.thumbprints()
	if x5t != "precomputed-x5t" {
		t.Fatalf("x5t: %q", x5t)
	}
	if s256 != "" {
		t.Fatalf("x5t#S256 should be empty without a certificate, got %q", s256)
	}
}

func TestNewTokenProviderRequiresCredentialPath(t *testing.T) {
	_, err := NewTokenProvider(TokenProviderConfig{
		TokenEndpoint: "https://login.example/token",
		ClientID:      "client-1",
	})
	if err == nil {
		t.Fatal("expected error without key or secret")
	}
}
