package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "devicehub"

type subjectKey struct{}

// JWTAuthenticator is middleware that validates HS256 bearer tokens
type JWTAuthenticator struct {
	key    []byte
	public map[string]bool
}

// NewJWTAuthenticator creates a new JWT authenticator middleware. Requests
// for publicPaths pass without a token. An empty key disables the check.
func NewJWTAuthenticator(key []byte, publicPaths ...string) *JWTAuthenticator {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return &JWTAuthenticator{key: key, public: public}
}

// Enabled reports whether tokens are checked at all.
func (j *JWTAuthenticator) Enabled() bool {
	return len(j.key) > 0
}

// IssueToken signs a token for subject valid for ttl from now.
func IssueToken(key []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(key) == 0 {
		return "", errors.New("signing key is empty")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// SubjectFromContext returns the authenticated token subject, or "".
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="devicehub"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(msg))
}

// Middleware returns an HTTP middleware that validates JWT tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !j.Enabled() || j.public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) == 0 {
			unauthorized(w, "Authorization missing")
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			unauthorized(w, "Malformed authorization header")
			return
		}

		token, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
			return j.key, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(tokenIssuer),
		)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			unauthorized(w, "Token expired")
			return
		case errors.Is(err, jwt.ErrTokenMalformed):
			unauthorized(w, "Malformed authorization token")
			return
		case err != nil:
			unauthorized(w, "Invalid token")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			unauthorized(w, "Token subject missing")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
	})
}
