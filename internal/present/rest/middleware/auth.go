package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/present/rest/presenter"
	"github.com/totegamma/concrnt-inscriber/internal/service"
)

var tracer = otel.Tracer("auth")

// APIKeyLookup resolves a plaintext API key.
type APIKeyLookup interface {
	Lookup(ctx context.Context, plaintext string) (domain.APIKey, error)
}

type AuthMiddleware struct {
	auth    *service.AuthService
	apikeys APIKeyLookup
}

func NewAuthMiddleware(
	auth *service.AuthService,
	apikeys APIKeyLookup,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth:    auth,
		apikeys: apikeys,
	}
}

// SplitAuthorization returns the scheme and credential of an Authorization header.
func SplitAuthorization(header string) (string, string, bool) {
	split := strings.Fields(header)
	if len(split) != 2 {
		return "", "", false
	}
	return split[0], split[1], true
}

// IdentifyIdentity attaches the requester of a valid Bearer JWT to the
// request context. Requests without one pass through anonymously.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			authType, token, ok := SplitAuthorization(authHeader)
			if !ok {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			if authType != domain.AuthSchemeBearer {
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(pkgerrors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterTypeCtxKey, domain.SignedUser)
			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.CCID)
			span.SetAttributes(attribute.String("RequesterId", result.CCID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireToken admits only requests carrying a known ListenBrainz style
// "Token <key>" credential.
func (s *AuthMiddleware) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireToken")
		defer span.End()

		authType, token, ok := SplitAuthorization(c.Request().Header.Get("authorization"))
		if !ok || !strings.EqualFold(authType, domain.AuthSchemeToken) || token == "" {
			return presenter.Unauthorized(c, "Missing token")
		}

		key, err := s.apikeys.Lookup(ctx, token)
		if err != nil {
			span.RecordError(pkgerrors.Wrap(err, "AuthMiddleware.RequireToken: s.apikeys.Lookup failed"))
			if errors.Is(err, domain.ErrUnauthorized) {
				return presenter.Unauthorized(c, "Invalid token")
			}
			return presenter.InternalError(c, err)
		}

		ctx = context.WithValue(ctx, domain.RequesterTypeCtxKey, domain.APIKeyUser)
		ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, key.Owner)
		ctx = context.WithValue(ctx, domain.RequesterKeyIdCtxKey, key.ID)
		span.SetAttributes(attribute.String("RequesterId", key.Owner))

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireIdentity rejects requests IdentifyIdentity could not attribute.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if RequesterID(c.Request().Context()) == "" {
			return presenter.Unauthorized(c, "authentication required")
		}
		return next(c)
	}
}

// RequesterID returns the authenticated requester, or "".
func RequesterID(ctx context.Context) string {
	id, _ := ctx.Value(domain.RequesterIdCtxKey).(string)
	return id
}
