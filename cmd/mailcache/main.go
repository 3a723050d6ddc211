package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/display"
	"github.com/nhle/mailcache/internal/logging"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgPath    string
	envFile    string
	userFlag   string
	jsonOutput bool
	quietFlag  bool

	app *App
)

var rootCmd = &cobra.Command{
	Use:           "mailcache",
	Short:         "mailcache - cached mailbox with AI summaries and replies",
	Long:          "mailcache syncs a mailbox into a local cache, serves category views, and drafts replies with an AI model.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version":
			return nil
		}

		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		cfg, err := model.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		if userFlag != "" {
			cfg.User = userFlag
		}

		log, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}

		app = &App{
			cfg: cfg,
			log: log,
			out: display.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		}

		// login and logout only touch the keyring and config.
		if cmd.Name() == "login" || cmd.Name() == "logout" {
			return nil
		}

		s, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		app.store = s
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mailcache version %s\n", Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			if err := model.SaveConfig(cfgPath, app.cfg); err != nil {
				return err
			}
			if !quietFlag {
				app.out.SuccessMsg("Wrote config to %s", cfgPath)
			}
		}
		if !quietFlag {
			app.out.SuccessMsg("Database ready (%s)", app.cfg.Store.Driver)
		}
		return nil
	},
}

// closeApp runs after every command, including failed ones.
func closeApp() {
	if app == nil {
		return
	}
	if app.store != nil {
		_ = app.store.Close()
	}
	_ = app.log.Sync()
}

func init() {
	cobra.OnFinalize(closeApp)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User id (default: config user)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
