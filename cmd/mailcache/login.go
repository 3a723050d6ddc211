package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/credential"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source/email"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store mail server and API credentials",
	Long:  "Prompts for IMAP/SMTP settings and secrets. Secrets go to the OS keyring; everything else is written to the config file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		var imapPassword, smtpPassword, apiKey string
		sameSMTP := true

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("IMAP Host").
					Placeholder("imap.gmail.com").
					Value(&cfg.IMAP.Host).
					Validate(validateRequired("IMAP host")),
				huh.NewInput().
					Title("IMAP Port").
					Placeholder("993").
					Value(&cfg.IMAP.Port).
					Validate(validatePort),
				huh.NewInput().
					Title("Username").
					Description("Usually your email address").
					Value(&cfg.IMAP.Username).
					Validate(validateRequired("Username")),
				huh.NewInput().
					Title("IMAP Password").
					Description("App password for the mailbox").
					EchoMode(huh.EchoModePassword).
					Value(&imapPassword).
					Validate(validateRequired("Password")),
				huh.NewConfirm().
					Title("Use TLS?").
					Affirmative("Yes").
					Negative("No").
					Value(&cfg.IMAP.TLS),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("SMTP Host").
					Placeholder("smtp.gmail.com").
					Value(&cfg.SMTP.Host).
					Validate(validateRequired("SMTP host")),
				huh.NewInput().
					Title("SMTP Port").
					Placeholder("587").
					Value(&cfg.SMTP.Port).
					Validate(validatePort),
				huh.NewConfirm().
					Title("Same password for SMTP?").
					Affirmative("Yes").
					Negative("No").
					Value(&sameSMTP),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("SMTP Password").
					EchoMode(huh.EchoModePassword).
					Value(&smtpPassword).
					Validate(validateRequired("Password")),
			).WithHideFunc(func() bool { return sameSMTP }),
			huh.NewGroup(
				huh.NewInput().
					Title("Anthropic API Key").
					Description("Leave empty to keep the stored key or use " + anthropicKeyEnv).
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if sameSMTP {
			smtpPassword = imapPassword
		}
		return saveLogin(cmd.Context(), cfg, imapPassword, smtpPassword, apiKey)
	},
}

var loginNoVerify bool

// verifyIMAP checks the mailbox login before anything is stored.
var verifyIMAP = func(ctx context.Context, cfg model.IMAPConfig, password string) error {
	return email.NewIMAPClient(cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS).Verify(ctx)
}

func saveLogin(ctx context.Context, cfg *model.AppConfig, imapPassword, smtpPassword, apiKey string) error {
	if !loginNoVerify {
		if err := verifyIMAP(ctx, cfg.IMAP, imapPassword); err != nil {
			return fmt.Errorf("checking imap login (use --no-verify to skip): %w", err)
		}
	}

	v, err := app.credentials()
	if err != nil {
		return err
	}
	if err := v.Set(credential.IMAPPassword(cfg.User), imapPassword); err != nil {
		return err
	}
	if err := v.Set(credential.SMTPPassword(cfg.User), smtpPassword); err != nil {
		return err
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		if err := v.Set(credential.AnthropicAPIKey, key); err != nil {
			return err
		}
	}

	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = cfg.IMAP.Username
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
	if err := model.SaveConfig(cfgPath, cfg); err != nil {
		return err
	}
	if !quietFlag {
		app.out.SuccessMsg("Saved credentials for %s", cfg.User)
	}
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored mail passwords for the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := app.credentials()
		if err != nil {
			return err
		}
		for _, key := range []string{credential.IMAPPassword(app.cfg.User), credential.SMTPPassword(app.cfg.User)} {
			if err := v.Delete(key); err != nil {
				return err
			}
		}
		if !quietFlag {
			app.out.SuccessMsg("Removed credentials for %s", app.cfg.User)
		}
		return nil
	},
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func init() {
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "Store credentials without testing the IMAP login")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
