package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/talentrelay/internal/domain"
)

const principalKey = "principal"

// Middleware resolves the principal for every request and stores it on the
// context. It never rejects; handlers decide whether a principal is required.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, err := a.Principal(c.Request()); err == nil {
				WithPrincipal(c, p)
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Middleware or ErrUnauthenticated.
func PrincipalFrom(c echo.Context) (*domain.Principal, error) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	if !ok || p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// WithPrincipal stores p on the context.
func WithPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}
