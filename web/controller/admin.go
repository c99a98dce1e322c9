package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/web/entity"
	"github.com/cetep-lnab/ouvidoria/web/middleware"
	"github.com/cetep-lnab/ouvidoria/web/service"
	"github.com/cetep-lnab/ouvidoria/web/session"

	"github.com/gin-gonic/gin"
)

const defaultLogCount = 100

type notifyStats interface {
	Stats() service.DispatcherStats
}

// AdminStats is the inbox overview shown to the administrator.
type AdminStats struct {
	Reports       int                     `json:"reports"`
	Unanswered    int                     `json:"unanswered"`
	Notifications service.DispatcherStats `json:"notifications"`
}

// AdminController serves the administrator login, the report inbox and the
// server logs.
type AdminController struct {
	BaseController

	adminService  *service.AdminService
	reportService service.ReportService
	notifier      notifyStats
}

func NewAdminController(g *gin.RouterGroup, admin *service.AdminService, reports service.ReportService, notifier notifyStats) *AdminController {
	a := &AdminController{
		adminService:  admin,
		reportService: reports,
		notifier:      notifier,
	}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/admin")
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)

	auth := g.Group("/reports")
	auth.Use(middleware.RequireAdmin())
	auth.GET("", a.list)
	auth.GET("/:id", a.get)
	auth.POST("/:id/respond", a.respond)
	auth.POST("/:id/delete", a.delete)

	server := g.Group("")
	server.Use(middleware.RequireAdmin())
	server.GET("/stats", a.stats)
	server.GET("/logs/:count", a.getLogs)
}

func (a *AdminController) login(c *gin.Context) {
	var form entity.AdminLoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}

	err := a.adminService.CheckAdmin(form.Username, form.Password, form.TwoFactorCode)
	if errors.Is(err, common.ErrUnauthorized) {
		logger.Warningf("wrong admin login: %q, IP: %s", form.Username, getRemoteIp(c))
		pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "errors.invalidLogin"))
		return
	}
	if err != nil {
		jsonErr(c, err)
		return
	}

	if err := session.SetAdmin(c, true); err != nil {
		logger.Warning("Unable to save session: ", err)
		jsonErr(c, err)
		return
	}
	logger.Infof("admin logged in, IP: %s", getRemoteIp(c))
	jsonMsg(c, I18nWeb(c, "pages.admin.loginSuccess"), nil)
}

func (a *AdminController) logout(c *gin.Context) {
	if err := session.SetAdmin(c, false); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	jsonMsg(c, I18nWeb(c, "pages.admin.logout"), nil)
}

func (a *AdminController) list(c *gin.Context) {
	reports, err := a.reportService.ListAll(c.Request.Context(), a.adminActor(c))
	jsonObj(c, reports, err)
}

func (a *AdminController) get(c *gin.Context) {
	detail, err := a.reportService.Get(c.Request.Context(), a.adminActor(c), c.Param("id"))
	jsonObj(c, detail, err)
}

func (a *AdminController) respond(c *gin.Context) {
	var form entity.RespondForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}
	resp, err := a.reportService.Respond(c.Request.Context(), a.adminActor(c), c.Param("id"), form.AdminMessage)
	jsonMsgObj(c, I18nWeb(c, "pages.reports.answered"), resp, err)
}

func (a *AdminController) delete(c *gin.Context) {
	err := a.reportService.Delete(c.Request.Context(), a.adminActor(c), c.Param("id"))
	if err == nil {
		logger.Infof("admin deleted report %s", c.Param("id"))
	}
	jsonMsg(c, I18nWeb(c, "pages.reports.deleted"), err)
}

func (a *AdminController) stats(c *gin.Context) {
	reports, err := a.reportService.ListAll(c.Request.Context(), a.adminActor(c))
	if err != nil {
		jsonObj(c, nil, err)
		return
	}
	st := AdminStats{Reports: len(reports)}
	for _, r := range reports {
		if !r.HasResponse {
			st.Unanswered++
		}
	}
	if a.notifier != nil {
		st.Notifications = a.notifier.Stats()
	}
	jsonObj(c, st, nil)
}

// getLogs returns the most recent buffered log lines at or above the level
// query parameter, newest first.
func (a *AdminController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count <= 0 {
		count = defaultLogCount
	}
	logs := logger.GetLogs(count, c.DefaultQuery("level", "INFO"))
	jsonObj(c, logs, nil)
}
