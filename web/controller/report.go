package controller

import (
	"net/http"

	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/web/entity"
	"github.com/cetep-lnab/ouvidoria/web/middleware"
	"github.com/cetep-lnab/ouvidoria/web/service"

	"github.com/gin-gonic/gin"
)

// ReportController serves the reports of the logged-in user.
type ReportController struct {
	BaseController

	reportService service.ReportService
}

func NewReportController(g *gin.RouterGroup, reports service.ReportService, sessions *service.SessionService) *ReportController {
	a := &ReportController{reportService: reports}
	a.initRouter(g, sessions)
	return a
}

func (a *ReportController) initRouter(g *gin.RouterGroup, sessions *service.SessionService) {
	g = g.Group("/reports")
	g.Use(middleware.RequireUser(sessions))

	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.POST("/:id/delete", a.delete)
}

func (a *ReportController) list(c *gin.Context) {
	reports, err := a.reportService.ListMine(c.Request.Context(), a.actor(c))
	jsonObj(c, reports, err)
}

func (a *ReportController) create(c *gin.Context) {
	var form entity.ReportForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}
	report, err := a.reportService.Create(c.Request.Context(), a.actor(c), service.ReportInput{
		Tipo:      form.Tipo,
		Titulo:    form.Titulo,
		Mensagem:  form.Mensagem,
		Turma:     form.Turma,
		AlunoNome: form.AlunoNome,
		Anonimo:   form.Anonimo,
	})
	if err != nil {
		jsonErr(c, err)
		return
	}
	logger.Infof("report %s created, IP: %s", report.Id, getRemoteIp(c))
	jsonMsgObj(c, I18nWeb(c, "pages.reports.created"), report, nil)
}

func (a *ReportController) get(c *gin.Context) {
	detail, err := a.reportService.Get(c.Request.Context(), a.actor(c), c.Param("id"))
	jsonObj(c, detail, err)
}

func (a *ReportController) delete(c *gin.Context) {
	err := a.reportService.Delete(c.Request.Context(), a.actor(c), c.Param("id"))
	jsonMsg(c, I18nWeb(c, "pages.reports.deleted"), err)
}
