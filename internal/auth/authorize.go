package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elmazzun/jwt-manager/internal/logging"
	"github.com/elmazzun/jwt-manager/internal/repo"
	"github.com/elmazzun/jwt-manager/internal/token"
)

// IdentityKey is the echo context key holding the authenticated claims.
const IdentityKey = "identity"

var (
	ErrMalformedCredential = errors.New("wrong bearer format")
	ErrUnknownUser         = errors.New("no such user")
	ErrRoleMismatch        = errors.New("role does not match")
	ErrRevokedByDate       = errors.New("token older than revocation threshold")
)

type Authorizer struct {
	Users     *repo.UserRepo
	Watermark *Watermark
}

// Require authorizes the request's bearer token. Checks run in a fixed
// order and the first failure wins: bearer scheme, structural decode,
// user lookup, role claim against the live record, issue time against the
// watermark, and only then the signature against the user's current
// secret. Structural and lookup failures are reported before any
// cryptography runs. On success the claims are stored in the context for
// downstream handlers.
func (a *Authorizer) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		bearer := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(bearer, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrMalformedCredential.Error())
		}
		raw := strings.TrimPrefix(bearer, "Bearer ")

		claims, err := token.Decode(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		user, err := a.Users.FindByUsername(ctx, claims.Username)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, ErrUnknownUser.Error())
			}
			logging.FromContext(ctx).Error("authorize: user lookup failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
		}

		if claims.Role != user.Role {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrRoleMismatch.Error())
		}

		if claims.IssuedAt < a.Watermark.Threshold() {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrRevokedByDate.Error())
		}

		if err := token.Verify(raw, user.TokenSecret); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		c.Set(IdentityKey, claims)
		return next(c)
	}
}

// Identity returns the claims stored by Require, or nil on an
// unauthenticated request.
func Identity(c echo.Context) *token.Claims {
	claims, _ := c.Get(IdentityKey).(*token.Claims)
	return claims
}
