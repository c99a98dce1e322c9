// Package middleware holds the gin handlers that guard the API routes.
package middleware

import (
	"net/http"

	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/web/entity"
	"github.com/cetep-lnab/ouvidoria/web/locale"
	"github.com/cetep-lnab/ouvidoria/web/service"
	"github.com/cetep-lnab/ouvidoria/web/session"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// CurrentUser returns the user resolved by RequireUser or LoadUser.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// LoadUser resolves the session token, if any, without rejecting the request.
func LoadUser(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := sessions.Resolve(c.Request.Context(), session.GetLoginToken(c)); user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless the session token maps to a live
// session.
func RequireUser(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			user = sessions.Resolve(c.Request.Context(), session.GetLoginToken(c))
		}
		if user == nil {
			abort(c, http.StatusUnauthorized, "pages.login.loginAgain")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin aborts with 401 unless the session carries the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAdmin(c) {
			abort(c, http.StatusUnauthorized, "pages.admin.required")
			return
		}
		c.Next()
	}
}

func translate(c *gin.Context, key string) string {
	if f, ok := c.Value("I18n").(locale.I18nFunc); ok {
		return f(key)
	}
	return key
}

func abort(c *gin.Context, status int, key string) {
	c.AbortWithStatusJSON(status, entity.Msg{Success: false, Msg: translate(c, key)})
}
