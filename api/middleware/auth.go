package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	pkgAuth "github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/auth/session"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const bearerPrefix = "bearer "

// Auth accepts "Bearer <jwt>" (or a bare token), checks the backing session
// and puts the actor on the request context.
func Auth(cfg config.JWTConfig, sessions session.Verifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			if sessions != nil {
				if err := sessions.Verify(ctx, claims.ID, claims.AccountID); err != nil {
					responses.WriteError(ctx, logg, w, sessionError(err))
					return
				}
			}

			actor := pkgAuth.ActorFromClaims(claims)
			ctx = context.WithValue(WithActor(ctx, actor), ctxAccessID, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.AccountID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
				if actor.FranchiseID != "" {
					ctx = logg.WithFranchiseID(ctx, actor.FranchiseID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = raw[len(bearerPrefix):]
	}
	return strings.TrimSpace(raw)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrMissingAccessID):
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session unavailable")
	case errors.Is(err, session.ErrOwnerMismatch):
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session does not match token")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
}
