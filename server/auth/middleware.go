package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Authenticator verifies bearer tokens on incoming requests.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate resolves the caller of an Authorization header value.
func (a *Authenticator) Authenticate(header string) (*UserClaims, error) {
	token := ExtractBearerToken(header)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := ParseAccessToken(token, a.secret)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return &UserClaims{UserID: userID}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller in the request context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := a.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				slog.Debug("rejected unauthenticated request", "path", c.Path(), "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
			}
			ctx := WithUserClaims(c.Request().Context(), claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
