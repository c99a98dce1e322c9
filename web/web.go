// Package web provides the ouvidoria HTTP server: routing, the cookie
// session, translations and the scheduled jobs.
package web

import (
	"context"
	"embed"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cetep-lnab/ouvidoria/caching"
	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/util/crypto"
	"github.com/cetep-lnab/ouvidoria/web/controller"
	"github.com/cetep-lnab/ouvidoria/web/job"
	"github.com/cetep-lnab/ouvidoria/web/locale"
	"github.com/cetep-lnab/ouvidoria/web/middleware"
	"github.com/cetep-lnab/ouvidoria/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

//go:embed translation/*
var i18nFS embed.FS

// Server is the ouvidoria web server with its services and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index   *controller.IndexController
	reports *controller.ReportController
	admin   *controller.AdminController

	userService    *service.UserService
	sessionService *service.SessionService
	adminService   *service.AdminService
	reportService  service.ReportService
	dispatcher     *service.Dispatcher
	alerter        service.Alerter

	cron *cron.Cron
}

func NewServer() *Server {
	return &Server{}
}

// NewNotifier builds the mail dispatcher from the configuration, with the
// Telegram alert attached when a bot is configured. The returned alerter is
// nil without Telegram.
func NewNotifier() (*service.Dispatcher, service.Alerter) {
	mailCfg := config.GetMailConfig()
	d := service.NewDispatcher(service.NewEmailSender(mailCfg), mailCfg.To, mailCfg.Timeout)

	tgCfg := config.GetTelegramConfig()
	if !tgCfg.Enabled() {
		return d, nil
	}
	alert, err := service.NewTelegramAlert(tgCfg)
	if err != nil {
		logger.Warning("telegram alert disabled: ", err)
		return d, nil
	}
	d.SetAlerter(alert)
	return d, alert
}

// initServices wires the services on top of conn.
func (s *Server) initServices(conn *gorm.DB, notifier *service.Dispatcher) {
	store := database.NewStore(conn)
	cache := caching.NewCache(config.GetSessionCacheTTL())

	s.dispatcher = notifier
	s.userService = service.NewUserService(store, crypto.NewBcryptHasher(), cache, config.GetInstitutionalDomain())
	s.sessionService = service.NewSessionService(store, cache, time.Duration(config.GetSessionMaxAge())*time.Minute)
	s.adminService = service.NewAdminService(config.GetAdminCredentials())
	s.reportService = service.NewReportService(store, notifier)

	if !s.adminService.Enabled() {
		logger.Warning("ADMIN_USER/ADMIN_PASS not set, administrator login is disabled")
	}
}

// initRouter initializes Gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	engine := gin.Default()

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	store := cookie.NewStore(config.GetSessionSecret())
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(config.GetName(), store))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(locale.LocalizerMiddleware())

	g := engine.Group("/")
	g.Use(middleware.LoadUser(s.sessionService))
	s.index = controller.NewIndexController(g, s.userService, s.sessionService)
	s.reports = controller.NewReportController(g, s.reportService, s.sessionService)
	s.admin = controller.NewAdminController(g, s.adminService, s.reportService, s.dispatcher)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": config.GetName(), "version": config.GetVersion()})
	})

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@hourly", job.NewSessionCleanupJob(s.sessionService)); err != nil {
		logger.Warning("Add SessionCleanupJob error", err)
	}
	// one pass at startup for sessions that expired while the server was down
	go job.NewSessionCleanupJob(s.sessionService).Run()

	if runtime := config.GetTelegramConfig().Runtime; s.alerter != nil && runtime != "" {
		logger.Infof("Tg report digest enabled, run at %s", runtime)
		if _, err := s.cron.AddJob(runtime, job.NewReportDigestJob(s.reportService, s.alerter)); err != nil {
			logger.Warning("Add ReportDigestJob error", err)
		}
	}
}

// Start initializes and starts the web server on the database opened by
// database.InitDB.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := config.GetTimeLocation()
	if err != nil {
		logger.Warning("time location: ", err)
	}
	s.cron = cron.New(cron.WithLocation(loc))
	s.cron.Start()

	notifier, alerter := NewNotifier()
	s.alerter = alerter
	s.initServices(database.GetDB(), notifier)

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped: ", err)
		}
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and the cron jobs, then waits for
// pending notifications.
func (s *Server) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	return common.Combine(err1, err2)
}
