package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}
type ctxKeyCaps struct{}

// ErrNoToken is returned by Authenticate when the request carries no Authorization header.
var ErrNoToken = errors.New("no bearer token")

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

// CapsFromContext returns the capability names granted by the caller's token.
func CapsFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(ctxKeyCaps{}).([]string)
	return v
}

// WithCaps injects capability names into context. Useful for testing.
func WithCaps(ctx context.Context, caps ...string) context.Context {
	return context.WithValue(ctx, ctxKeyCaps{}, caps)
}

type Claims struct {
	jwt.RegisteredClaims
	Role string   `json:"role"`
	Caps []string `json:"caps,omitempty"`
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticate validates the Bearer token of r and returns a context carrying
// the caller's user_id, role and caps.
func (v JWTVerifier) Authenticate(r *http.Request) (context.Context, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return nil, ErrNoToken
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("unsupported authorization scheme")
	}
	claims, err := v.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.Subject)
	if strings.TrimSpace(claims.Role) != "" {
		ctx = context.WithValue(ctx, ctxKeyRole{}, claims.Role)
	}
	if len(claims.Caps) > 0 {
		ctx = context.WithValue(ctx, ctxKeyCaps{}, claims.Caps)
	}
	return ctx, nil
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := verifier.Authenticate(r)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalUser lets anonymous requests through untouched. A request that does
// send a token must send a valid one.
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := verifier.Authenticate(r)
			switch {
			case errors.Is(err, ErrNoToken):
				next.ServeHTTP(w, r)
			case err != nil:
				w.WriteHeader(http.StatusUnauthorized)
			default:
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
