package hook

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"wikinotify/internal/handler/http/respond"
	"wikinotify/internal/observability/metrics"

	"github.com/golang-jwt/jwt/v5"
)

// Audience is the aud claim ingest tokens must carry.
const Audience = "wikinotify"

var errMissingBearer = errors.New("missing bearer token")

// BearerAuth rejects requests without a valid HS256 token signed with secret.
// Tokens must carry exp and aud=wikinotify.
func BearerAuth(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(Audience),
		jwt.WithLeeway(30*time.Second),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := validateToken(parser, keyFunc, r.Header.Get("Authorization")); err != nil {
				metrics.RecordEventRejected(metrics.RejectUnauthorized)
				w.Header().Set("WWW-Authenticate", `Bearer realm="wikinotify"`)
				respond.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateToken(parser *jwt.Parser, keyFunc jwt.Keyfunc, authz string) error {
	const prefix = "Bearer "
	if len(authz) <= len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return errMissingBearer
	}
	_, err := parser.ParseWithClaims(authz[len(prefix):], &jwt.RegisteredClaims{}, keyFunc)
	return err
}

// IssueToken signs a token the ingest endpoint accepts, valid for ttl.
// The wiki side or an operator script uses it to authenticate.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(secret)
}
