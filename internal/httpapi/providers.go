package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/translator/internal/i18n"
	"horse.fit/translator/internal/prefs"
	"horse.fit/translator/internal/translation"
)

type providerItem struct {
	Name           string `json:"name"`
	EngineID       string `json:"engine_id"`
	Available      bool   `json:"available"`
	CharacterLimit int    `json:"character_limit"`
	Current        bool   `json:"current"`
	Default        bool   `json:"default"`
}

type providersResponse struct {
	Current   string         `json:"current"`
	Default   string         `json:"default"`
	Providers []providerItem `json:"providers"`
}

type selectProviderRequest struct {
	Name string `json:"name"`
}

type selectProviderResponse struct {
	Requested string `json:"requested"`
	Current   string `json:"current"`
	Fallback  bool   `json:"fallback"`
	Message   string `json:"message"`
}

type prefsUpdateRequest struct {
	DefaultSource    *string `json:"default_source"`
	DefaultTarget    *string `json:"default_target"`
	RememberLastLang *bool   `json:"remember_last_lang"`
}

type prefsResponse struct {
	Provider      string       `json:"provider"`
	Record        prefs.Record `json:"record"`
	EffectivePair [2]string    `json:"effective_pair"`
}

type languagesResponse struct {
	Provider  string                 `json:"provider"`
	Source    string                 `json:"source,omitempty"`
	Languages []translation.Language `json:"languages"`
}

func (s *Server) handleProviders(c echo.Context) error {
	registry := s.manager.Registry()
	current := providerName(registry.Current())
	def := providerName(registry.Default())

	resp := providersResponse{Current: current, Default: def}
	for _, provider := range registry.Providers() {
		resp.Providers = append(resp.Providers, providerItem{
			Name:           provider.Name(),
			EngineID:       provider.EngineID(),
			Available:      provider.IsAvailable(),
			CharacterLimit: provider.CharacterLimit(),
			Current:        provider.Name() == current,
			Default:        provider.Name() == def,
		})
	}
	return success(c, resp)
}

func (s *Server) handleSetCurrent(c echo.Context) error {
	var req selectProviderRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	provider, err := s.manager.Registry().SetCurrent(name)
	if err != nil && provider == nil {
		s.logger.Error().Err(err).Str("provider", name).Msg("select provider failed")
		return internalError(c, "Failed to select provider")
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("selected provider not persisted")
	}

	return success(c, selectProviderResponse{
		Requested: name,
		Current:   provider.Name(),
		Fallback:  !strings.EqualFold(provider.Name(), name),
		Message:   s.messages.T(s.locale(c), i18n.MsgTranslatorSwitched, map[string]any{"Current": provider.Name()}),
	})
}

func (s *Server) handleSetDefault(c echo.Context) error {
	var req selectProviderRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Name) == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}
	if err := s.manager.Registry().SetDefault(req.Name); err != nil {
		return failValidation(c, map[string]string{"name": err.Error()})
	}
	return s.handleProviders(c)
}

func (s *Server) handleLanguages(c echo.Context) error {
	provider, ok := s.lookupProvider(c)
	if !ok {
		return failNotFound(c, "Provider not found")
	}

	source := strings.TrimSpace(c.QueryParam("source"))
	resp := languagesResponse{Provider: provider.Name(), Source: source}
	if source == "" {
		resp.Languages = provider.Languages()
	} else {
		resp.Languages = provider.LanguagePairs(source)
	}
	if resp.Languages == nil {
		resp.Languages = []translation.Language{}
	}
	return success(c, resp)
}

func (s *Server) handlePrefs(c echo.Context) error {
	provider, ok := s.lookupProvider(c)
	if !ok {
		return failNotFound(c, "Provider not found")
	}
	return success(c, buildPrefsResponse(provider))
}

func (s *Server) handleUpdatePrefs(c echo.Context) error {
	provider, ok := s.lookupProvider(c)
	if !ok {
		return failNotFound(c, "Provider not found")
	}
	p := provider.Preferences()

	var req prefsUpdateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	fieldErrors := map[string]string{}
	if req.DefaultSource != nil {
		if err := p.SetDefaultSource(*req.DefaultSource); err != nil {
			fieldErrors["default_source"] = err.Error()
		}
	}
	if req.DefaultTarget != nil {
		if err := p.SetDefaultTarget(*req.DefaultTarget); err != nil {
			fieldErrors["default_target"] = err.Error()
		}
	}
	if req.RememberLastLang != nil {
		if err := p.SetRememberLastLang(*req.RememberLastLang); err != nil {
			fieldErrors["remember_last_lang"] = err.Error()
		}
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}
	return success(c, buildPrefsResponse(provider))
}

func (s *Server) handleSwapPrefs(c echo.Context) error {
	provider, ok := s.lookupProvider(c)
	if !ok {
		return failNotFound(c, "Provider not found")
	}
	if _, _, err := provider.Preferences().Swap(); err != nil {
		if errors.Is(err, prefs.ErrSwapAuto) {
			return fail(c, http.StatusConflict, err.Error(), nil)
		}
		s.logger.Error().Err(err).Str("provider", provider.Name()).Msg("swap languages failed")
		return internalError(c, "Failed to swap languages")
	}
	return success(c, buildPrefsResponse(provider))
}

func (s *Server) handleModels(c echo.Context) error {
	local, ok := s.manager.Registry().ByName(translation.LocallyName).(*translation.LocalProvider)
	if !ok || local == nil {
		return success(c, map[string]any{"models": []translation.Model{}})
	}
	return success(c, map[string]any{"models": local.Catalog().Models()})
}

func (s *Server) lookupProvider(c echo.Context) (translation.Provider, bool) {
	provider := s.manager.Registry().ByName(c.Param("name"))
	return provider, provider != nil
}

func buildPrefsResponse(provider translation.Provider) prefsResponse {
	p := provider.Preferences()
	source, target := p.EffectivePair()
	return prefsResponse{
		Provider:      provider.Name(),
		Record:        p.Record(),
		EffectivePair: [2]string{source, target},
	}
}

func providerName(provider translation.Provider) string {
	if provider == nil {
		return ""
	}
	return provider.Name()
}
