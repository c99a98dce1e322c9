package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"

	"go.uber.org/atomic"
)

//go:embed mailtpl/*
var mailFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(mailFS, "mailtpl/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(mailFS, "mailtpl/*.txt"))
)

const (
	categoryReportCreated  = "report-notification"
	categoryReportAnswered = "report-response"
	categoryTest           = "config-test"
)

// Notifier is told about report events. Calls return immediately; delivery
// happens in the background and its failures never reach the caller.
type Notifier interface {
	ReportCreated(report *model.Report, author *model.User)
	ReportAnswered(report *model.Report, resp *model.Response, owner *model.User)
}

// Alerter pushes a short text to the administrators, e.g. over Telegram.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

type DispatcherStats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

// Dispatcher is the Notifier backed by an EmailSender and an optional
// Alerter. Each delivery runs on its own goroutine bounded by timeout.
type Dispatcher struct {
	sender  EmailSender
	alerter Alerter
	inbox   []string
	timeout time.Duration
	loc     *time.Location

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// NewDispatcher sends new-report mail to inbox and answers to report owners.
func NewDispatcher(sender EmailSender, inbox []string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	loc, err := config.GetTimeLocation()
	if err != nil {
		logger.Warning("time location: ", err)
	}
	return &Dispatcher{
		sender:  sender,
		inbox:   inbox,
		timeout: timeout,
		loc:     loc,
	}
}

func (d *Dispatcher) SetAlerter(a Alerter) {
	d.alerter = a
}

type mailData struct {
	Emoji        string
	Tipo         string
	TipoUpper    string
	Titulo       string
	Mensagem     string
	Anonimo      bool
	Autor        string
	Turma        string
	UserName     string
	UserEmail    string
	Criado       string
	AdminMessage string
	App          string
	Version      string
}

func (d *Dispatcher) newMailData(r *model.Report, u *model.User) mailData {
	data := mailData{
		Emoji:     TipoEmoji(r.Tipo),
		Tipo:      r.Tipo,
		TipoUpper: strings.ToUpper(r.Tipo),
		Titulo:    r.Titulo,
		Mensagem:  r.Mensagem,
		Anonimo:   r.Anonimo,
		Criado:    common.FormatTime(r.CreatedAt, d.loc),
	}
	if r.Anonimo {
		return data
	}
	data.Turma = common.OrDefault(r.Turma, "—")
	data.Autor = fmt.Sprintf("%s (Turma: %s)", common.OrDefault(r.AlunoNome, "ANÔNIMO"), data.Turma)
	if u != nil {
		data.UserName = u.Name
		data.UserEmail = u.Email
	}
	return data
}

func render(name string, data mailData) (string, string, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return "", "", err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return "", "", err
	}
	return html.String(), text.String(), nil
}

// ReportCreated mails the school inbox and alerts the administrators. For
// anonymous reports neither message carries author details.
func (d *Dispatcher) ReportCreated(report *model.Report, author *model.User) {
	data := d.newMailData(report, author)
	if len(d.inbox) == 0 {
		d.skipped.Inc()
		logger.Warning("MAIL_TO not configured, new report notification skipped")
	} else {
		html, text, err := render("report_created", data)
		if err != nil {
			logger.Error("render report mail: ", err)
		} else {
			m := &Mail{
				Subject:  fmt.Sprintf("📝 %s — %s", data.TipoUpper, report.Titulo),
				HTML:     html,
				Text:     text,
				To:       d.inbox,
				Category: categoryReportCreated,
			}
			d.dispatch("report "+report.Id, func(ctx context.Context) error {
				return d.sender.Send(ctx, m)
			})
		}
	}

	if d.alerter != nil {
		msg := alertText(data)
		d.dispatch("alert "+report.Id, func(ctx context.Context) error {
			return d.alerter.Alert(ctx, msg)
		})
	}
}

func alertText(data mailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Nova manifestação: %s\n", data.Emoji, data.TipoUpper)
	fmt.Fprintf(&b, "%s\n", data.Titulo)
	if data.Anonimo {
		b.WriteString("Autor: ANÔNIMO\n")
	} else {
		fmt.Fprintf(&b, "Autor: %s\n", data.Autor)
	}
	fmt.Fprintf(&b, "Enviado em: %s\n\n%s", data.Criado, common.Truncate(data.Mensagem, 500))
	return b.String()
}

// ReportAnswered mails the owner's real address whatever the report's
// anonymity. Owners with only a synthetic address are skipped.
func (d *Dispatcher) ReportAnswered(report *model.Report, resp *model.Response, owner *model.User) {
	if owner == nil {
		d.skipped.Inc()
		logger.Warningf("owner of report %s not found, answer notification skipped", report.Id)
		return
	}
	if !owner.HasRealEmail() {
		d.skipped.Inc()
		logger.Infof("user %s has no deliverable e-mail, answer notification skipped", owner.Id)
		return
	}

	data := d.newMailData(report, owner)
	data.UserName = owner.Name
	data.AdminMessage = resp.AdminMessage
	html, text, err := render("report_answered", data)
	if err != nil {
		logger.Error("render answer mail: ", err)
		return
	}
	m := &Mail{
		Subject:  fmt.Sprintf("✉️ Resposta da Ouvidoria — %s", report.Titulo),
		HTML:     html,
		Text:     text,
		To:       []string{owner.Email},
		Category: categoryReportAnswered,
	}
	d.dispatch("answer "+resp.Id, func(ctx context.Context) error {
		return d.sender.Send(ctx, m)
	})
}

// SendTest delivers a test message to the school inbox synchronously and
// returns the transport error, if any.
func (d *Dispatcher) SendTest(ctx context.Context) error {
	if len(d.inbox) == 0 {
		return common.NewError("MAIL_TO not configured")
	}
	data := mailData{App: config.GetName(), Version: config.GetVersion()}
	html, text, err := render("test", data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.sender.Send(ctx, &Mail{
		Subject:  "Teste de configuração de e-mail",
		HTML:     html,
		Text:     text,
		To:       d.inbox,
		Category: categoryTest,
	})
}

func (d *Dispatcher) dispatch(what string, send func(ctx context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.skipped.Inc()
		logger.Warningf("dispatcher closed, %s dropped", what)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer common.Recover("notification " + what)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			d.failed.Inc()
			logger.Warningf("notification %s failed: %v", what, err)
			return
		}
		d.sent.Inc()
	}()
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting deliveries and waits for the running ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Skipped: d.skipped.Load(),
	}
}
