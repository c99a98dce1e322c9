// Package session stores the login token and the admin flag in the signed
// session cookie.
package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginToken = "LOGIN_TOKEN"
	adminFlag  = "ADMIN"
)

func SetLoginToken(c *gin.Context, token string) error {
	s := sessions.Default(c)
	s.Set(loginToken, token)
	return s.Save()
}

func GetLoginToken(c *gin.Context) string {
	s := sessions.Default(c)
	if v, ok := s.Get(loginToken).(string); ok {
		return v
	}
	return ""
}

func SetAdmin(c *gin.Context, admin bool) error {
	s := sessions.Default(c)
	if admin {
		s.Set(adminFlag, true)
	} else {
		s.Delete(adminFlag)
	}
	return s.Save()
}

func IsAdmin(c *gin.Context) bool {
	s := sessions.Default(c)
	v, ok := s.Get(adminFlag).(bool)
	return ok && v
}

// SetMaxAge sets the cookie lifetime in seconds. Zero keeps a browser
// session cookie.
func SetMaxAge(c *gin.Context, maxAge int) {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearLogin drops the user token but keeps an admin flag set in the same
// cookie.
func ClearLogin(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(loginToken)
	return s.Save()
}
