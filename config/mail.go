package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type MailProvider string

const (
	MailSendGrid MailProvider = "sendgrid"
	MailSMTP     MailProvider = "smtp"
	MailLog      MailProvider = "log"
)

// MailConfig groups every setting the outbound mail transports need.
type MailConfig struct {
	Provider       MailProvider
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPStartTLS   bool
	From           string
	To             []string
	Timeout        time.Duration
}

// GetMailConfig reads the mail settings. Without MAIL_PROVIDER the provider is
// picked from what is configured: SendGrid when an API key exists, SMTP when a
// host exists, otherwise mails are only logged.
func GetMailConfig() MailConfig {
	cfg := MailConfig{
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getenvInt("SMTP_PORT", 587),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPStartTLS:   getenvBool("SMTP_STARTTLS", true),
		From:           os.Getenv("MAIL_FROM"),
		To:             splitList(os.Getenv("MAIL_TO")),
		Timeout:        getenvDuration("MAIL_TIMEOUT", 10*time.Second),
	}
	if cfg.From == "" {
		cfg.From = cfg.SMTPUser
	}

	switch MailProvider(strings.ToLower(os.Getenv("MAIL_PROVIDER"))) {
	case MailSendGrid:
		cfg.Provider = MailSendGrid
	case MailSMTP:
		cfg.Provider = MailSMTP
	case MailLog:
		cfg.Provider = MailLog
	default:
		switch {
		case cfg.SendGridAPIKey != "":
			cfg.Provider = MailSendGrid
		case cfg.SMTPHost != "":
			cfg.Provider = MailSMTP
		default:
			cfg.Provider = MailLog
		}
	}
	return cfg
}

// TelegramConfig holds the optional Telegram alert settings.
type TelegramConfig struct {
	Token   string
	ChatIDs []int64
	// Runtime is the cron spec of the report digest. Empty disables it.
	Runtime string
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && len(c.ChatIDs) > 0
}

// GetTelegramConfig reads TG_BOT_TOKEN, the comma separated TG_BOT_CHAT_IDS
// and TG_BOT_RUNTIME ("@daily" unless set, "off" disables the digest). Chat
// ids that do not parse are ignored.
func GetTelegramConfig() TelegramConfig {
	cfg := TelegramConfig{
		Token:   strings.TrimSpace(os.Getenv("TG_BOT_TOKEN")),
		Runtime: "@daily",
	}
	if v, ok := os.LookupEnv("TG_BOT_RUNTIME"); ok {
		cfg.Runtime = strings.TrimSpace(v)
		if strings.EqualFold(cfg.Runtime, "off") {
			cfg.Runtime = ""
		}
	}
	for _, raw := range splitList(os.Getenv("TG_BOT_CHAT_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		cfg.ChatIDs = append(cfg.ChatIDs, id)
	}
	return cfg
}
