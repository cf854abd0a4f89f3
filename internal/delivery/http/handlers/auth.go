package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/dto/checkout/response"
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// Claims is the bearer token payload issued by the account service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and puts the caller into the
// request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, response.ErrorResponse{Code: "UNAUTHORIZED", Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (a *Authenticator) authenticate(header string) (domain.Principal, error) {
	if header == "" {
		return domain.Principal{}, errors.New("missing authorization")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.Principal{}, errors.New("invalid authorization header")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return domain.Principal{}, errors.New("token has no subject")
	}
	return domain.Principal{ID: claims.Subject, Role: domain.Role(claims.Role)}, nil
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller, or the zero Principal on
// routes without authentication.
func PrincipalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}
