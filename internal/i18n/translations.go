// Package i18n renders user-facing strings in the caller's language.
package i18n

import (
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.vi.toml", "active.en.toml"}

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	logger          *zap.Logger
}

// NewTranslator builds a Translator for the given default locale (e.g. "vi").
// Unknown locales fall back to Vietnamese.
func NewTranslator(defaultLocale string, logger *zap.Logger) (*Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.Vietnamese
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", file, err)
		}
	}

	return &Translator{bundle: bundle, defaultLanguage: tag, logger: logger}, nil
}

// Localizer binds the translator to the languages accepted by one request,
// typically the raw Accept-Language header.
func (t *Translator) Localizer(accept ...string) *Localizer {
	langs := append(append([]string{}, accept...), t.defaultLanguage.String())
	return &Localizer{localizer: i18n.NewLocalizer(t.bundle, langs...), logger: t.logger}
}

// T renders key in the default language.
func (t *Translator) T(key string, data map[string]any) string {
	return t.Localizer().T(key, data)
}

// Localizer renders messages for one set of preferred languages.
type Localizer struct {
	localizer *i18n.Localizer
	logger    *zap.Logger
}

// T renders the message identified by key. Missing keys render as the key.
func (l *Localizer) T(key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		l.logger.Debug("i18n: localize failed", zap.String("key", key), zap.Error(err))
		return key
	}
	return msg
}

// PeriodDetail renders the "(Tiết 1-2)" label.
func (l *Localizer) PeriodDetail(start, end int) string {
	return l.T("page.period_detail", map[string]any{"Start": start, "End": end})
}
