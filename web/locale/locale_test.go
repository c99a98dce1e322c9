package locale

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := InitLocalizer(os.DirFS("..")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestI18n(t *testing.T) {
	pt := NewLocalizer("pt-BR")
	en := NewLocalizer("en-US")

	assert.Equal(t, "Preencha a senha", I18n(pt, "errors.passwordRequired"))
	assert.Equal(t, "Password is required", I18n(en, "errors.passwordRequired"))
	assert.Equal(t, "Apenas emails @x.org são aceitos", I18n(pt, "errors.emailDomain", "Domain==@x.org"))

	assert.Equal(t, "no.such.key", I18n(pt, "no.such.key"))
	assert.Equal(t, "errors.notFound", I18n(nil, "errors.notFound"))

	// unsupported languages fall back to pt-BR
	assert.Equal(t, "Preencha a senha", I18n(NewLocalizer("ja"), "errors.passwordRequired"))
}

func TestLocalizerMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(LocalizerMiddleware())
	r.GET("/", func(c *gin.Context) {
		f, ok := c.MustGet("I18n").(I18nFunc)
		require.True(t, ok)
		c.String(http.StatusOK, f("errors.invalidLogin"))
	})

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"default", "", "", "Credenciais inválidas"},
		{"header", "", "en-US,en;q=0.9", "Invalid credentials"},
		{"cookie wins", "pt-BR", "en-US", "Credenciais inválidas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}
