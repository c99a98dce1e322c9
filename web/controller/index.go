package controller

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/web/entity"
	"github.com/cetep-lnab/ouvidoria/web/middleware"
	"github.com/cetep-lnab/ouvidoria/web/service"
	"github.com/cetep-lnab/ouvidoria/web/session"

	"github.com/gin-gonic/gin"
)

var displayLocation = sync.OnceValue(func() *time.Location {
	loc, err := config.GetTimeLocation()
	if err != nil {
		logger.Warning("time location: ", err)
	}
	return loc
})

func toProfile(u *model.User) *entity.Profile {
	p := &entity.Profile{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		ReceivesEmail: u.HasRealEmail(),
		CreatedAt:     common.FormatTime(u.CreatedAt, displayLocation()),
	}
	if u.Matricula != nil {
		p.Matricula = *u.Matricula
	}
	return p
}

// IndexController handles registration, login and the profile of the
// logged-in user.
type IndexController struct {
	BaseController

	userService    *service.UserService
	sessionService *service.SessionService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, users *service.UserService, sessions *service.SessionService) *IndexController {
	a := &IndexController{
		userService:    users,
		sessionService: sessions,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.POST("/register", a.register)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)

	auth := g.Group("")
	auth.Use(middleware.RequireUser(a.sessionService))
	auth.GET("/me", a.me)
	auth.POST("/profile/email", a.updateEmail)
}

func (a *IndexController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}

	var (
		user *model.User
		err  error
	)
	ctx := c.Request.Context()
	switch form.Type {
	case entity.RegisterInstitutional:
		user, err = a.userService.RegisterInstitutional(ctx, form.Name, form.Email, form.Password)
	case entity.RegisterMatricula:
		user, err = a.userService.RegisterMatricula(ctx, form.Name, form.Matricula, form.NotifyEmail, form.Password)
	default:
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "pages.register.invalidType"))
		return
	}
	if err != nil {
		jsonErr(c, err)
		return
	}

	logger.Infof("user %s registered, IP: %s", user.Id, getRemoteIp(c))
	jsonMsgObj(c, I18nWeb(c, "pages.register.success"), toProfile(user), nil)
}

func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}
	if strings.TrimSpace(form.Login) == "" {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.loginRequired"))
		return
	}
	if form.Password == "" {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.passwordRequired"))
		return
	}

	ctx := c.Request.Context()
	user, err := a.userService.CheckUser(ctx, form.Login, form.Password)
	if errors.Is(err, common.ErrUnauthorized) {
		logger.Warningf("wrong login: %q, IP: %s", form.Login, getRemoteIp(c))
		pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "errors.invalidLogin"))
		return
	}
	if err != nil {
		jsonErr(c, err)
		return
	}

	token, err := a.sessionService.Login(ctx, user)
	if err != nil {
		jsonErr(c, err)
		return
	}
	session.SetMaxAge(c, int(a.sessionService.MaxAge()/time.Second))
	if err := session.SetLoginToken(c, token); err != nil {
		logger.Warning("Unable to save session: ", err)
		jsonErr(c, err)
		return
	}

	logger.Infof("user %s logged in, IP: %s", user.Id, getRemoteIp(c))
	jsonMsgObj(c, I18nWeb(c, "pages.login.welcome", "Name=="+user.Name), toProfile(user), nil)
}

func (a *IndexController) logout(c *gin.Context) {
	token := session.GetLoginToken(c)
	if token != "" {
		if err := a.sessionService.Logout(c.Request.Context(), token); err != nil {
			logger.Warning("logout err: ", err)
		}
	}
	if err := session.ClearLogin(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	jsonMsg(c, I18nWeb(c, "pages.login.logout"), nil)
}

func (a *IndexController) me(c *gin.Context) {
	jsonObj(c, toProfile(middleware.CurrentUser(c)), nil)
}

func (a *IndexController) updateEmail(c *gin.Context) {
	var form entity.EmailForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "errors.invalidForm"))
		return
	}
	user, err := a.userService.UpdateEmail(c.Request.Context(), middleware.CurrentUser(c), form.Email)
	if err != nil {
		jsonErr(c, err)
		return
	}
	jsonMsgObj(c, I18nWeb(c, "pages.profile.emailUpdated"), toProfile(user), nil)
}
