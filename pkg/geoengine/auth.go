package geoengine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// Scope requested for engine access tokens.
const Scope = "https://www.googleapis.com/auth/earthengine"

const (
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL   = time.Hour
)

// ServiceAccountKey is the JSON key file issued for a service account.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccountKey decodes and checks a service-account key.
func ParseServiceAccountKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, eris.Wrap(err, "geoengine: decode service account key")
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, eris.New("geoengine: service account key missing client_email or private_key")
	}
	if key.TokenURI == "" {
		key.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return &key, nil
}

// assertion builds the signed RS256 JWT exchanged for an access token.
func (k *ServiceAccountKey) assertion(now time.Time) (string, error) {
	signer, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(k.PrivateKey))
	if err != nil {
		return "", eris.Wrap(err, "geoengine: parse private key")
	}

	claims := jwt.MapClaims{
		"iss":   k.ClientEmail,
		"scope": Scope,
		"aud":   k.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if k.PrivateKeyID != "" {
		tok.Header["kid"] = k.PrivateKeyID
	}

	signed, err := tok.SignedString(signer)
	if err != nil {
		return "", eris.Wrap(err, "geoengine: sign assertion")
	}
	return signed, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// exchange trades the signed assertion for an access token.
func (c *httpClient) exchange(ctx context.Context, key *ServiceAccountKey) (*Session, error) {
	now := c.now()
	assertion, err := key.assertion(now)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, key.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "geoengine: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geoengine: send token request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geoengine: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify("authenticate", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, eris.Wrap(err, "geoengine: decode token response")
	}
	if tr.AccessToken == "" {
		return nil, eris.New("geoengine: token response missing access_token")
	}
	if tr.ExpiresIn <= 0 {
		tr.ExpiresIn = int64(assertionTTL / time.Second)
	}

	return &Session{
		ProjectID:   key.ProjectID,
		ClientEmail: key.ClientEmail,
		AccessToken: tr.AccessToken,
		Expiry:      now.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
