package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/translator/internal/stats"
	"horse.fit/translator/internal/translation"
)

const (
	defaultStatsLimit = 5
	maxStatsLimit     = 100
)

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Provider   string `json:"provider"`
}

type statsResponse struct {
	Provider string        `json:"provider"`
	Sources  []stats.Entry `json:"sources"`
	Targets  []stats.Entry `json:"targets"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	resp, err := s.manager.TranslateWith(c.Request().Context(), req.Provider, translation.TranslateRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
	})
	if err != nil {
		return s.translationError(c, err)
	}
	return success(c, resp)
}

func (s *Server) handleStats(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultStatsLimit, 1, maxStatsLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	name := strings.TrimSpace(c.QueryParam("provider"))
	if name == "" {
		name = providerName(s.manager.Registry().Current())
	}
	provider := s.manager.Registry().ByName(name)
	if provider == nil {
		return failNotFound(c, "Provider not found")
	}

	ctx := c.Request().Context()
	sources, err := s.manager.MostUsed(ctx, provider.Name(), stats.KindSource, limit)
	if err != nil {
		return s.statsError(c, err)
	}
	targets, err := s.manager.MostUsed(ctx, provider.Name(), stats.KindTarget, limit)
	if err != nil {
		return s.statsError(c, err)
	}
	return success(c, statsResponse{Provider: provider.Name(), Sources: sources, Targets: targets})
}

func (s *Server) statsError(c echo.Context, err error) error {
	if errors.Is(err, translation.ErrNotConfigured) {
		return failNotFound(c, err.Error())
	}
	s.logger.Error().Err(err).Msg("load usage stats failed")
	return internalError(c, "Failed to load stats")
}

// translationError maps a failure kind to an HTTP status and renders the
// message in the caller's Accept-Language.
func (s *Server) translationError(c echo.Context, err error) error {
	status := statusForError(err)
	message := s.messages.Error(s.locale(c), err)
	data := map[string]any{"kind": translation.KindName(err)}

	var typed *translation.Error
	if errors.As(err, &typed) && typed.Provider != "" {
		data["provider"] = typed.Provider
	}

	if status >= 500 {
		s.logger.Warn().Err(err).Str("kind", translation.KindName(err)).Msg("translation failed")
		return errorWithStatus(c, status, message, data)
	}
	return fail(c, status, message, data)
}

func statusForError(err error) int {
	switch translation.KindOf(err) {
	case translation.ErrEmptyInput, translation.ErrUnsupportedLanguage:
		return http.StatusBadRequest
	case translation.ErrInputTooLong:
		return http.StatusRequestEntityTooLarge
	case translation.ErrNoRoute:
		return http.StatusUnprocessableEntity
	case translation.ErrNotConfigured:
		return http.StatusServiceUnavailable
	case translation.ErrTransport, translation.ErrMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) locale(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get("Accept-Language"))
}
