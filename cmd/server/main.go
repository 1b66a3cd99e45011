package main

import (
	"fmt"
	"os"
	"time"

	_ "taskflow/docs"
	"taskflow/internal/config"
	"taskflow/internal/server"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// @title           Taskflow API
// @version         1.0
// @description     Multi-tenant task management: organizations, teams, tasks and live notifications.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Task management API server",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE:  runServe,
}

var superAdminFlags struct {
	username string
	email    string
	password string
}

var createSuperAdminCmd = &cobra.Command{
	Use:   "create-superadmin",
	Short: "Create a super admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := cfg.NewLogger()

		s, err := server.Init(cfg, log)
		if err != nil {
			return err
		}
		user, err := s.Users.CreateSuperAdmin(cmd.Context(),
			superAdminFlags.username, superAdminFlags.email, superAdminFlags.password)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("✅ Super admin created")
		return nil
	},
}

func init() {
	f := createSuperAdminCmd.Flags()
	f.StringVar(&superAdminFlags.username, "username", "", "username of the super admin")
	f.StringVar(&superAdminFlags.email, "email", "", "email of the super admin")
	f.StringVar(&superAdminFlags.password, "password", "", "password of the super admin")
	_ = createSuperAdminCmd.MarkFlagRequired("username")
	_ = createSuperAdminCmd.MarkFlagRequired("email")
	_ = createSuperAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, createSuperAdminCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := cfg.NewLogger()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.WithError(err).Warn("⚠️  Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	s, err := server.Init(cfg, log)
	if err != nil {
		return fmt.Errorf("❌ server initialization failed: %w", err)
	}

	s.Run()
	return nil
}
