package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/cmd/cli/commands"
	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/clients/gmailclient"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
	"github.com/lifeline-network/lifeline-engine/pkg/postgres"
	"github.com/lifeline-network/lifeline-engine/pkg/utils"
	"github.com/lifeline-network/lifeline-engine/pkg/utils/logging"
)

var (
	configPath string
	app        *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifeline",
		Short: "Lifeline - Donation lifecycle engine",
		Long:  `The engine behind donor eligibility, appointment booking, camp capacity, blood safety screening and emergency fulfillment.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(commands.ServeCmd(appRef()))
	rootCmd.AddCommand(commands.MigrateCmd(appRef()))
	rootCmd.AddCommand(commands.PlanCampsCmd(appRef()))
	rootCmd.AddCommand(commands.ListCampsCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, allocated before initApp fills it in
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, database and the optional notifier
func initApp() error {
	var err error
	ctx := context.Background()

	app = appRef()
	app.Ctx = ctx

	app.Logger, err = logging.InitLogger("lifeline")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting lifeline engine")

	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else if app.Cfg, err = config.Load(); err != nil {
		app.Logger.Warn("No config file found; using defaults", zap.Error(err))
		app.Cfg = config.Default()
	}

	app.LockMgr = locks.NewManager()

	if app.Cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Database = pg
	} else {
		app.Logger.Warn("No databaseURL configured; using in-memory storage")
		app.Database = db.NewMemStore()
	}

	if app.Cfg.Notify.GmailUserID != "" {
		if err := initNotifier(ctx); err != nil {
			// Booking still works without email
			app.Logger.Warn("Email notifications disabled", zap.Error(err))
		}
	}

	return nil
}

// initNotifier wires the Gmail client used for booking confirmations
func initNotifier(ctx context.Context) error {
	oauthCfg, err := config.LoadOAuthClient()
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return fmt.Errorf("failed to build OAuth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, "lifeline")
	if err != nil {
		return fmt.Errorf("failed to obtain OAuth token: %w", err)
	}

	client, err := gmailclient.NewClient(ctx, oauthCfg, token, app.Cfg.Notify.GmailSender)
	if err != nil {
		return fmt.Errorf("failed to create gmail client: %w", err)
	}

	app.Notifier = client
	app.Logger.Info("Email notifications enabled", zap.String("user", app.Cfg.Notify.GmailUserID))
	return nil
}
