package service

import (
	"context"
	"strings"

	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
)

// Shown to the administrator in place of the author of an anonymous report.
const (
	AnonymousName  = "ANÔNIMO"
	AnonymousEmail = "oculto@anonimo.local"
)

// ReportInput is what a user submits.
type ReportInput struct {
	Tipo      string
	Titulo    string
	Mensagem  string
	Turma     string
	AlunoNome string
	Anonimo   bool
}

// Author is the submitter as displayed to the administrator.
type Author struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Matricula string `json:"matricula,omitempty"`
}

type ReportSummary struct {
	*model.Report
	TipoEmoji   string `json:"tipoEmoji"`
	TipoClass   string `json:"tipoClass"`
	HasResponse bool   `json:"hasResponse"`
}

type ReportDetail struct {
	*model.Report
	TipoEmoji string          `json:"tipoEmoji"`
	TipoClass string          `json:"tipoClass"`
	Response  *model.Response `json:"response"`
	Author    *Author         `json:"author,omitempty"`
}

// ReportService applies ownership, anonymity and admin rules on top of the
// record store. Denied access to an existing report is indistinguishable
// from a missing one: both return common.ErrNotFound.
type ReportService interface {
	Create(ctx context.Context, actor Actor, in ReportInput) (*model.Report, error)
	Get(ctx context.Context, actor Actor, id string) (*ReportDetail, error)
	Delete(ctx context.Context, actor Actor, id string) error
	ListMine(ctx context.Context, actor Actor) ([]*ReportSummary, error)
	ListAll(ctx context.Context, actor Actor) ([]*ReportSummary, error)
	Respond(ctx context.Context, actor Actor, id string, message string) (*model.Response, error)
}

type reportService struct {
	store    database.RecordStore
	notifier Notifier
}

func NewReportService(store database.RecordStore, notifier Notifier) ReportService {
	return &reportService{store: store, notifier: notifier}
}

func (s *reportService) Create(ctx context.Context, actor Actor, in ReportInput) (*model.Report, error) {
	if actor.User == nil {
		return nil, common.ErrUnauthorized
	}
	titulo := strings.TrimSpace(in.Titulo)
	mensagem := strings.TrimSpace(in.Mensagem)
	if titulo == "" {
		return nil, common.NewFieldError("titulo", "titleRequired")
	}
	if mensagem == "" {
		return nil, common.NewFieldError("mensagem", "messageRequired")
	}

	report := &model.Report{
		UserId:   actor.User.Id,
		Tipo:     common.OrDefault(strings.TrimSpace(in.Tipo), model.DefaultTipo),
		Titulo:   titulo,
		Mensagem: mensagem,
		Anonimo:  in.Anonimo,
	}
	if !in.Anonimo {
		report.Turma = strings.TrimSpace(in.Turma)
		report.AlunoNome = strings.TrimSpace(in.AlunoNome)
	}
	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, err
	}
	logger.Infof("report %s created", report.Id)

	if s.notifier != nil {
		s.notifier.ReportCreated(report, actor.User)
	}
	return report, nil
}

// load fetches a report the actor may see.
func (s *reportService) load(ctx context.Context, actor Actor, id string) (*model.Report, error) {
	if actor.IsAnonymous() {
		return nil, common.ErrUnauthorized
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !(actor.Admin || actor.owns(report)) {
		return nil, common.ErrNotFound
	}
	return report, nil
}

func (s *reportService) Get(ctx context.Context, actor Actor, id string) (*ReportDetail, error) {
	report, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.store.GetResponseByReport(ctx, report.Id)
	if err != nil {
		return nil, err
	}
	detail := &ReportDetail{
		Report:    report,
		TipoEmoji: TipoEmoji(report.Tipo),
		TipoClass: TipoClass(report.Tipo),
		Response:  resp,
	}
	if actor.Admin {
		detail.Report = adminView(report)
		detail.Author, err = s.author(ctx, report)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// adminView hides the owner of an anonymous report. The stored row keeps the
// id for ownership checks and answer mail.
func adminView(r *model.Report) *model.Report {
	if !r.Anonimo {
		return r
	}
	masked := *r
	masked.UserId = ""
	return &masked
}

func (s *reportService) author(ctx context.Context, report *model.Report) (*Author, error) {
	if report.Anonimo {
		return &Author{Name: AnonymousName, Email: AnonymousEmail}, nil
	}
	user, err := s.store.GetUser(ctx, report.UserId)
	if err != nil || user == nil {
		return nil, err
	}
	a := &Author{Name: user.Name, Email: user.Email}
	if user.Matricula != nil {
		a.Matricula = *user.Matricula
	}
	return a, nil
}

func (s *reportService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.load(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteReport(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return common.ErrNotFound
	}
	logger.Infof("report %s deleted (admin=%v)", id, actor.Admin)
	return nil
}

func (s *reportService) summarize(ctx context.Context, reports []*model.Report, admin bool) ([]*ReportSummary, error) {
	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.Id
	}
	responses, err := s.store.ResponsesByReports(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*ReportSummary, len(reports))
	for i, r := range reports {
		if admin {
			r = adminView(r)
		}
		out[i] = &ReportSummary{
			Report:      r,
			TipoEmoji:   TipoEmoji(r.Tipo),
			TipoClass:   TipoClass(r.Tipo),
			HasResponse: responses[r.Id] != nil,
		}
	}
	return out, nil
}

// ListMine returns the actor's own reports, newest first.
func (s *reportService) ListMine(ctx context.Context, actor Actor) ([]*ReportSummary, error) {
	if actor.User == nil {
		return nil, common.ErrUnauthorized
	}
	reports, err := s.store.ListReportsByUser(ctx, actor.User.Id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reports, false)
}

// ListAll returns every report, newest first. Administrator only.
func (s *reportService) ListAll(ctx context.Context, actor Actor) ([]*ReportSummary, error) {
	if !actor.Admin {
		return nil, common.ErrUnauthorized
	}
	reports, err := s.store.ListAllReports(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reports, true)
}

// Respond stores an administrator answer and notifies the owner at their real
// address, anonymous or not.
func (s *reportService) Respond(ctx context.Context, actor Actor, id string, message string) (*model.Response, error) {
	if !actor.Admin {
		if actor.IsAnonymous() {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrNotFound
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, common.NewFieldError("adminMessage", "messageRequired")
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, common.ErrNotFound
	}

	resp := &model.Response{ReportId: report.Id, AdminMessage: message}
	if err := s.store.InsertResponse(ctx, resp); err != nil {
		return nil, err
	}
	logger.Infof("report %s answered", report.Id)

	owner, err := s.store.GetUser(ctx, report.UserId)
	if err != nil {
		logger.Warning("load report owner err: ", err)
	}
	if s.notifier != nil {
		s.notifier.ReportAnswered(report, resp, owner)
	}
	return resp, nil
}
