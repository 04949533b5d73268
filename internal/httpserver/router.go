package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elmazzun/jwt-manager/internal/auth"
)

type Deps struct {
	Accounts      *AccountHTTP
	Authorizer    *auth.Authorizer
	LoginThrottle echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/auth/register", d.Accounts.Register)
	if d.LoginThrottle != nil {
		e.POST("/auth/login", d.Accounts.Login, d.LoginThrottle)
	} else {
		e.POST("/auth/login", d.Accounts.Login)
	}

	private := e.Group("", d.Authorizer.Require)

	private.GET("/users/:username", d.Accounts.GetUser)
	private.POST("/auth/tokens/revoke/:username", d.Accounts.Revoke)
	private.POST("/auth/tokens/passwordreset", d.Accounts.PasswordReset)
	private.POST("/auth/changeroles", d.Accounts.ChangeRoles)
	private.POST("/auth/tokens/revokeolder", d.Accounts.RevokeOlder)
}
