// Package controller provides the HTTP handlers of the ouvidoria API: user
// registration and login, report submission and the administrator views.
package controller

import (
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/web/locale"
	"github.com/cetep-lnab/ouvidoria/web/middleware"
	"github.com/cetep-lnab/ouvidoria/web/service"
	"github.com/cetep-lnab/ouvidoria/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides helpers shared by all controllers.
type BaseController struct{}

// actor is the user resolved by the middleware. The admin flag of the
// cookie only counts on /admin routes, see adminActor.
func (a *BaseController) actor(c *gin.Context) service.Actor {
	return service.UserActor(middleware.CurrentUser(c))
}

func (a *BaseController) adminActor(c *gin.Context) service.Actor {
	if session.IsAdmin(c) {
		return service.AdminActor()
	}
	return service.Actor{}
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	anyfunc, funcExists := c.Get("I18n")
	if !funcExists {
		logger.Warning("I18n function not exists in gin context!")
		return name
	}
	i18nFunc, _ := anyfunc.(locale.I18nFunc)
	if i18nFunc == nil {
		return name
	}
	return i18nFunc(name, params...)
}
