package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPort(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"", 5000},
		{"8080", 8080},
		{"abc", 5000},
		{"70000", 5000},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("PORT", tt.env)
			assert.Equal(t, tt.want, GetPort())
		})
	}
}

func TestGetInstitutionalDomain(t *testing.T) {
	t.Setenv("INSTITUTIONAL_DOMAIN", "")
	assert.Equal(t, "@enova.educacao.ba.gov.br", GetInstitutionalDomain())

	t.Setenv("INSTITUTIONAL_DOMAIN", " Escola.Example.org ")
	assert.Equal(t, "@escola.example.org", GetInstitutionalDomain())
}

func TestGetWebDomain(t *testing.T) {
	t.Setenv("OUVIDORIA_DOMAIN", " Ouvidoria.Example.org")
	assert.Equal(t, "ouvidoria.example.org", GetWebDomain())
}

func TestGetMailConfigProviderSelection(t *testing.T) {
	for _, k := range []string{"MAIL_PROVIDER", "SENDGRID_API_KEY", "SMTP_HOST", "MAIL_FROM", "SMTP_USER"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, MailLog, GetMailConfig().Provider)

	t.Setenv("SMTP_HOST", "smtp.example.com")
	assert.Equal(t, MailSMTP, GetMailConfig().Provider)

	t.Setenv("SENDGRID_API_KEY", "key")
	assert.Equal(t, MailSendGrid, GetMailConfig().Provider)

	t.Setenv("MAIL_PROVIDER", "log")
	assert.Equal(t, MailLog, GetMailConfig().Provider)
}

func TestGetMailConfigValues(t *testing.T) {
	t.Setenv("MAIL_TO", " a@example.com, ,b@example.com ")
	t.Setenv("MAIL_FROM", "")
	t.Setenv("SMTP_USER", "sender@example.com")
	t.Setenv("MAIL_TIMEOUT", "")
	t.Setenv("MAIL_TIMEOUT_SECONDS", "3")
	t.Setenv("SMTP_STARTTLS", "off")

	cfg := GetMailConfig()
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.To)
	assert.Equal(t, "sender@example.com", cfg.From)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.False(t, cfg.SMTPStartTLS)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestGetTelegramConfig(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "token")
	t.Setenv("TG_BOT_CHAT_IDS", "123, x, -456")

	cfg := GetTelegramConfig()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, []int64{123, -456}, cfg.ChatIDs)
	assert.Equal(t, "@daily", cfg.Runtime)

	t.Setenv("TG_BOT_RUNTIME", "off")
	assert.Empty(t, GetTelegramConfig().Runtime)
	t.Setenv("TG_BOT_RUNTIME", "0 8 * * *")
	assert.Equal(t, "0 8 * * *", GetTelegramConfig().Runtime)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OUVIDORIA_TEST_VALUE=from-file\nADMIN_USER=file-admin\n"), 0o600))

	t.Setenv("ADMIN_USER", "env-admin")
	t.Setenv("OUVIDORIA_TEST_VALUE", "")
	os.Unsetenv("OUVIDORIA_TEST_VALUE")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("OUVIDORIA_TEST_VALUE"))
	user, _ := GetAdminCredentials()
	assert.Equal(t, "env-admin", user)

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestGetDBPath(t *testing.T) {
	t.Setenv("OUVIDORIA_DB_PATH", "")
	t.Setenv("OUVIDORIA_DB_FOLDER", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/data", "ouvidoria.db"), GetDBPath())

	t.Setenv("OUVIDORIA_DB_PATH", "/srv/x.db")
	assert.Equal(t, "/srv/x.db", GetDBPath())
}

func TestGetTimeLocation(t *testing.T) {
	t.Setenv("TIME_LOCATION", "UTC")
	loc, err := GetTimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	t.Setenv("TIME_LOCATION", "Nowhere/Invalid")
	loc, err = GetTimeLocation()
	assert.Error(t, err)
	assert.NotNil(t, loc)
}

func TestGetSessionCacheTTL(t *testing.T) {
	t.Setenv("SESSION_CACHE_TTL", "")
	t.Setenv("SESSION_CACHE_TTL_SECONDS", "")
	assert.Equal(t, time.Minute, GetSessionCacheTTL())

	t.Setenv("SESSION_CACHE_TTL_SECONDS", "30")
	assert.Equal(t, 30*time.Second, GetSessionCacheTTL())

	t.Setenv("SESSION_CACHE_TTL", "0s")
	assert.Equal(t, time.Duration(0), GetSessionCacheTTL())
}
