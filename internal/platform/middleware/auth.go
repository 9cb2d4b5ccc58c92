package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Claims is the actor identity asserted by the external actor directory.
type Claims struct {
	ActorID id.ActorID
	Role    id.Role
}

// TokenValidator validates bearer tokens into actor claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// JWTValidator validates HS256 tokens issued by the actor directory.
// The workflow engine consumes (actor id, role); it never issues tokens.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	actorID, err := id.ParseActorID(sub)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}

	rawRole, _ := claims["role"].(string)
	role, err := id.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("token role: %w", err)
	}

	return &Claims{ActorID: actorID, Role: role}, nil
}

// RequireAuth validates the bearer token and stores the actor identity in the
// request context. Requests without a usable identity get 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.ActorID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not in allowed.
// Must run after RequireAuth.
func RequireRole(logger *slog.Logger, allowed ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.Role(ctx)
			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "role not permitted",
				"request_id", requestcontext.RequestID(ctx),
				"role", role.String(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not permitted for this endpoint"))
		})
	}
}
