package handler

import (
	"context"
	"errors"

	"questserver/internal/pkg/address"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

type ctxKey string

var ctxKeyClaimant ctxKey = "CLAIMANT"

// Claimant canonicalises the addr query parameter once and keeps it on the request context.
func Claimant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			addr, err := address.Normalize(c.QueryParam("addr"))
			if err != nil {
				return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing addr"), errorx.Validation))
			}

			ctx := context.WithValue(c.Request().Context(), ctxKeyClaimant, addr)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveClaimant(ctx context.Context) (string, error) {
	addr, ok := ctx.Value(ctxKeyClaimant).(string)
	if !ok || addr == "" {
		return "", errorx.Wrap(errors.New("missing addr"), errorx.Validation)
	}
	return addr, nil
}
