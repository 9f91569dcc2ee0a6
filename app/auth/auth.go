// Package auth resolves the signed-in user of a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// SessionCookie is read when no Authorization header is present.
const SessionCookie = "session"

var ErrNoIdentity = errors.New("no identity")

type contextKey struct{}

// Verifier checks HS256 session tokens and yields their subject.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify returns the user id carried in the token's subject claim.
func (v *Verifier) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token: %w", ErrNoIdentity)
	}
	return claims.Subject, nil
}

// Identify resolves the user id of r from the bearer token or the session cookie.
func (v *Verifier) Identify(r *http.Request) (string, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return "", ErrNoIdentity
	}
	return v.Verify(token)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware stores the caller's user id in the request context. Requests
// without a valid identity are redirected to signInPath.
func Middleware(v *Verifier, signInPath string, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := v.Identify(r)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("unauthenticated request")
				http.Redirect(w, r, signInPath, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the user id stored by Middleware, or "" when there is none.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
