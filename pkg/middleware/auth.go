package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"salonbliss/pkg/logger"
)

const identityKey contextKey = "identity"

// Identity is the resolved caller: the subject and email claims of a valid
// bearer token. Token issuance lives in the auth service; this middleware
// only resolves tokens it can verify.
type Identity struct {
	UserID string
	Email  string
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	log    *logger.Logger
}

func NewAuthenticator(secret string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		log:    log,
	}
}

// Require wraps a route so it only runs with a resolved identity in context.
func (a *Authenticator) Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, err := a.resolve(r)
		if err != nil {
			a.log.Warn("Request authentication failed",
				"request_id", requestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx), ps)
	}
}

func (a *Authenticator) resolve(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, errors.New("missing bearer token")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// WithIdentity injects an identity into a context. Handler tests use it to
// simulate an authenticated request.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
