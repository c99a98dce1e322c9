package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/web"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github.com/xlzd/gotp"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close db err:", err)
		}
	}()

	server := web.NewServer()
	err = server.Start()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("restarting web server")
			err := server.Stop()
			if err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			err = server.Start()
			if err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	initLogger()
	fmt.Println("Start migrating database...")
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	if err := database.CloseDB(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Migration done!")
}

func sendTestEmail() error {
	initLogger()
	mailCfg := config.GetMailConfig()
	fmt.Println("provider:", mailCfg.Provider)
	fmt.Println("to:", strings.Join(mailCfg.To, ", "))

	d, _ := web.NewNotifier()
	defer d.Close()
	ctx, cancel := context.WithTimeout(context.Background(), mailCfg.Timeout+5*time.Second)
	defer cancel()
	return d.SendTest(ctx)
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

func showSetting() {
	user, pass := config.GetAdminCredentials()
	mailCfg := config.GetMailConfig()
	tgCfg := config.GetTelegramConfig()

	fmt.Println("current settings as follows:")
	fmt.Println("listen:", config.GetListen())
	fmt.Println("port:", config.GetPort())
	fmt.Println("db:", config.GetDBPath())
	fmt.Println("institutional domain:", config.GetInstitutionalDomain())
	fmt.Println("session max age (min):", config.GetSessionMaxAge())
	fmt.Println("admin user:", user)
	fmt.Println("admin pass:", mask(pass))
	fmt.Println("admin 2fa:", config.GetAdminTotpSecret() != "")
	fmt.Println("mail provider:", mailCfg.Provider)
	fmt.Println("mail to:", strings.Join(mailCfg.To, ", "))
	fmt.Println("telegram alerts:", tgCfg.Enabled())
}

func newTotpSecret() {
	secret := gotp.RandomSecret(16)
	user, _ := config.GetAdminCredentials()
	if user == "" {
		user = "admin"
	}
	uri := gotp.NewDefaultTOTP(secret).ProvisioningUri(user, config.GetName())
	fmt.Println("ADMIN_TOTP_SECRET=" + secret)
	fmt.Println(uri)

	q, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		fmt.Println("render qr code failed:", err)
		return
	}
	fmt.Println(q.ToSmallString(false))
}

func main() {
	var rootCmd = &cobra.Command{
		Use: config.GetName(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			envFile, _ := cmd.Flags().GetString("env")
			if err := config.LoadEnv(envFile); err != nil {
				log.Fatal("load env: ", err)
			}
		},
	}
	rootCmd.PersistentFlags().String("env", ".env", "env file to load")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var testEmailCmd = &cobra.Command{
		Use:   "test-email",
		Short: "Send a test message to MAIL_TO",
		Run: func(cmd *cobra.Command, args []string) {
			if err := sendTestEmail(); err != nil {
				fmt.Println("send test email failed:", err)
				os.Exit(1)
			}
			fmt.Println("test email sent")
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetName(), config.GetVersion())
		},
	}

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}

	var totpCmd = &cobra.Command{
		Use:   "totp",
		Short: "Generate an administrator TOTP secret",
		Run: func(cmd *cobra.Command, args []string) {
			newTotpSecret()
		},
	}

	settingCmd.AddCommand(showCmd, totpCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, testEmailCmd, versionCmd, settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
