// Package locale loads the toml translations and picks a localizer per
// request from the lang cookie or the Accept-Language header.
package locale

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/cetep-lnab/ouvidoria/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when the request names no supported language.
var DefaultLanguage = language.MustParse("pt-BR")

var (
	bundleMu   sync.RWMutex
	i18nBundle *i18n.Bundle
)

// I18nFunc translates a message id with optional "key==value" params.
type I18nFunc func(key string, params ...string) string

// InitLocalizer parses every file under translation/ in fsys.
func InitLocalizer(fsys fs.FS) error {
	bundle := newBundle()
	if err := parseTranslationFiles(fsys, bundle); err != nil {
		return err
	}
	bundleMu.Lock()
	i18nBundle = bundle
	bundleMu.Unlock()
	return nil
}

func newBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return bundle
}

func getBundle() *i18n.Bundle {
	bundleMu.RLock()
	b := i18nBundle
	bundleMu.RUnlock()
	if b == nil {
		return newBundle()
	}
	return b
}

// NewLocalizer returns a localizer for the given language preferences,
// falling back to DefaultLanguage.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(getBundle(), append(langs, DefaultLanguage.String())...)
}

func createTemplateData(params []string, separator ...string) map[string]any {
	sep := "=="
	if len(separator) > 0 {
		sep = separator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

// I18n localizes key. A missing message yields the key itself.
func I18n(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Debugf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware stores the request localizer and an I18nFunc bound
// to it in the gin context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		localizer := NewLocalizer(lang)
		c.Set("localizer", localizer)
		c.Set("I18n", I18nFunc(func(key string, params ...string) string {
			return I18n(localizer, key, params...)
		}))
		c.Next()
	}
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return err
			}
			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
