package controller

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/web/entity"
	"github.com/cetep-lnab/ouvidoria/web/service"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonMsg sends a JSON response with a message and error status.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

// jsonMsgObj answers 200 with msg and obj, or the status and localized
// message matching err.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	if err != nil {
		jsonErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Msg{
		Success: true,
		Msg:     msg,
		Obj:     obj,
	})
}

// jsonErr maps the error kinds of util/common to an HTTP status. Field
// errors carry the offending field in obj.
func jsonErr(c *gin.Context, err error) {
	status, key, obj := errorStatus(err)
	msg := I18nWeb(c, key, "Domain=="+config.GetInstitutionalDomain())
	if status >= http.StatusInternalServerError {
		logger.Warning(c.Request.Method, " ", c.Request.URL.Path, " ", I18nWeb(c, "fail"), ": ", err)
	} else {
		logger.Debug(c.Request.Method, " ", c.Request.URL.Path, ": ", err)
	}
	c.JSON(status, entity.Msg{
		Success: false,
		Msg:     msg,
		Obj:     obj,
	})
}

func errorStatus(err error) (int, string, any) {
	var (
		fieldErr    *common.FieldError
		conflictErr *common.ConflictError
	)
	switch {
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, "errors." + fieldErr.Key, gin.H{"field": fieldErr.Field}
	case errors.As(err, &conflictErr):
		return http.StatusConflict, "errors." + conflictErr.Field + "Taken", gin.H{"field": conflictErr.Field}
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, "errors.invalidForm", nil
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "errors.notFound", nil
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "pages.login.loginAgain", nil
	case errors.Is(err, service.ErrAdminNotConfigured):
		return http.StatusServiceUnavailable, "pages.admin.notConfigured", nil
	default:
		return http.StatusInternalServerError, "errors.internal", nil
	}
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}
