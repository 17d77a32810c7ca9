package middleware

import (
	"context"
	"strings"

	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/router"
	"github.com/squadbid/backend/pkg/xcontext"
)

// ParseToken extracts the bearer token if one is present. It never rejects,
// Authenticate does that for protected routes.
func ParseToken() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		authorization := xcontext.HTTPRequest(ctx).Header.Get("Authorization")
		token := strings.TrimPrefix(authorization, "Bearer ")
		if token == "" || token == authorization {
			return nil, nil
		}

		accessToken, err := xcontext.TokenEngine(ctx).Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify the access token: %v", err)
			return nil, nil
		}

		return xcontext.WithRequestUserID(ctx, accessToken.ID), nil
	}
}

func Authenticate() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserID(ctx) == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		return nil, nil
	}
}
