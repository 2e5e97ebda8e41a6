package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"horse.fit/translator/internal/auth"
)

// requireToken guards the API with the bearer token whose bcrypt hash is
// configured. The digest of the last accepted token is kept so repeated
// requests skip bcrypt.
func (s *Server) requireToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.opts.TokenHash == "" || c.Path() == "/api/v1/health" {
				return next(c)
			}

			token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return unauthorizedResponse(c)
			}
			digest := sha256.Sum256([]byte(token))

			s.tokenMu.Lock()
			known := s.acceptedToken
			s.tokenMu.Unlock()
			if known != nil && subtle.ConstantTimeCompare(known, digest[:]) == 1 {
				return next(c)
			}

			if !auth.VerifyToken(token, s.opts.TokenHash) {
				s.logger.Warn().Str("remote_ip", c.RealIP()).Msg("rejected API token")
				return unauthorizedResponse(c)
			}
			s.tokenMu.Lock()
			s.acceptedToken = digest[:]
			s.tokenMu.Unlock()
			return next(c)
		}
	}
}

func unauthorizedResponse(c echo.Context) error {
	if c == nil {
		return fmt.Errorf("authentication required")
	}
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return fail(c, http.StatusUnauthorized, "Authentication required", nil)
}
