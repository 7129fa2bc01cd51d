package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/log"

	"github.com/golang-jwt/jwt/v5"
)

type ownerKey struct{}

// tokenClaims is the payload issued by the identity provider.
type tokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and places the owner id in the
// request context.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator returns an Authenticator for the shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

var errNoOwner = errors.New("token has no userId claim")

// Owner verifies raw and returns its userId claim.
func (a *Authenticator) Owner(raw string) (string, error) {
	var claims tokenClaims
	_, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", errNoOwner
	}
	return claims.UserID, nil
}

// Middleware rejects requests without a token with 401 and requests with an
// unverifiable token with 400.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Access denied. No token provided."})
			return
		}

		owner, err := a.Owner(raw)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				WarnContext(r.Context(), "Rejected bearer token", log.FieldError, err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		logger := log.FromContext(ctx).With(log.FieldOwner, owner)
		ctx = log.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken returns the credential part of "<scheme> <token>".
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// OwnerFromContext returns the authenticated owner id.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
