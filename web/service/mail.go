package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"

	"github.com/goccy/go-json"
)

// Mail is one outbound message with an HTML body and its plain text twin.
type Mail struct {
	Subject  string
	HTML     string
	Text     string
	To       []string
	Category string
}

// EmailSender delivers mail. Implementations must honour ctx cancellation.
type EmailSender interface {
	Send(ctx context.Context, m *Mail) error
}

// NewEmailSender builds the transport selected by cfg.
func NewEmailSender(cfg config.MailConfig) EmailSender {
	switch cfg.Provider {
	case config.MailSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.From)
	case config.MailSMTP:
		return &SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			StartTLS: cfg.SMTPStartTLS,
			From:     cfg.From,
		}
	default:
		return LogSender{}
	}
}

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type SendGridSender struct {
	APIKey   string
	From     string
	Endpoint string
	Client   *http.Client
}

func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		APIKey:   apiKey,
		From:     from,
		Endpoint: sendGridEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
	Categories       []string            `json:"categories,omitempty"`
}

func (s *SendGridSender) Send(ctx context.Context, m *Mail) error {
	if s.APIKey == "" {
		return common.NewError("SENDGRID_API_KEY not configured")
	}
	if s.From == "" {
		return common.NewError("MAIL_FROM not configured")
	}
	if len(m.To) == 0 {
		return common.NewError("no recipients")
	}

	to := make([]sgAddress, 0, len(m.To))
	for _, addr := range m.To {
		to = append(to, sgAddress{Email: addr})
	}
	payload := sgPayload{
		Personalizations: []sgPersonalization{{To: to}},
		From:             sgAddress{Email: s.From},
		Subject:          m.Subject,
		Content: []sgContent{
			{Type: "text/plain", Value: m.Text},
			{Type: "text/html", Value: m.HTML},
		},
	}
	if m.Category != "" {
		payload.Categories = []string{m.Category}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return common.NewErrorf("sendgrid status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	logger.Infof("mail sent via SendGrid to %s", strings.Join(m.To, ", "))
	return nil
}

// SMTPSender delivers through an SMTP relay. Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when StartTLS is set.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	StartTLS bool
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, m *Mail) error {
	if s.Host == "" {
		return common.NewError("SMTP_HOST not configured")
	}
	if s.From == "" {
		return common.NewError("MAIL_FROM not configured")
	}
	if len(m.To) == 0 {
		return common.NewError("no recipients")
	}

	msg, err := buildMIME(s.From, m)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	if s.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if s.Port != 465 && s.StartTLS {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return err
		}
	}
	if s.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(s.From); err != nil {
		return err
	}
	for _, rcpt := range m.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Infof("mail sent via SMTP to %s", strings.Join(m.To, ", "))
	return c.Quit()
}

func buildMIME(from string, m *Mail) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct {
		ctype string
		value string
	}{
		{"text/plain; charset=UTF-8", m.Text},
		{"text/html; charset=UTF-8", m.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, part.value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// LogSender only logs what would have been sent. It is used when no mail
// provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m *Mail) error {
	logger.Infof("mail not sent (no provider configured): %q to %s", m.Subject, strings.Join(m.To, ", "))
	return nil
}
