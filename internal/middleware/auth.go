package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fabric-bridge/internal/domain"
)

// AnonymousPrincipal is used when no auth secret is configured. Token
// acquisition and tenant validation live upstream; this layer only pins a
// request identity for auditing.
const AnonymousPrincipal = "anonymous"

// BearerAuth returns middleware that resolves the request principal.
//
// With an empty secret, every request runs as AnonymousPrincipal. With a
// secret set, requests must carry an HS256 bearer token signed with it; the
// principal name comes from the "name" claim, falling back to "sub".
func BearerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{Name: AnonymousPrincipal, Type: "user"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, "missing bearer token")
				return
			}
			principal, err := validateHS256(secret, token)
			if err != nil {
				writeAuthError(w, err.Error())
				return
			}

			ctx := domain.WithPrincipal(r.Context(), *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func validateHS256(secret, tokenString string) (*domain.ContextPrincipal, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected token claims type")
	}

	principal := domain.ContextPrincipal{Type: "user"}
	if name, ok := claims["name"].(string); ok && name != "" {
		principal.Name = name
	} else if sub, ok := claims["sub"].(string); ok && sub != "" {
		principal.Name = sub
	} else {
		return nil, fmt.Errorf("token has no name or sub claim")
	}
	if typ, ok := claims["type"].(string); ok && typ != "" {
		principal.Type = typ
	}
	return &principal, nil
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
