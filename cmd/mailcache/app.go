package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailcache/internal/ai"
	"github.com/nhle/mailcache/internal/credential"
	"github.com/nhle/mailcache/internal/display"
	"github.com/nhle/mailcache/internal/drafting"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
	"github.com/nhle/mailcache/internal/source/email"
	"github.com/nhle/mailcache/internal/store"
	mailsync "github.com/nhle/mailcache/internal/sync"
	"github.com/nhle/mailcache/internal/view"
)

const anthropicKeyEnv = "ANTHROPIC_API_KEY"

// App holds what the commands share for one invocation.
type App struct {
	cfg   *model.AppConfig
	log   *zap.Logger
	store *store.SQLStore
	out   *display.Printer
	vault *credential.Vault
}

func (a *App) credentials() (*credential.Vault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := credential.Open(credential.Config{
		Dir:          filepath.Join(model.ConfigDir(), "credentials"),
		FilePassword: os.Getenv("MAILCACHE_KEYRING_PASSWORD"),
	})
	if err != nil {
		return nil, err
	}
	a.vault = v
	return v, nil
}

func (a *App) location() *time.Location {
	loc, err := a.cfg.Location()
	if err != nil {
		a.log.Warn("falling back to local timezone", zap.Error(err))
		return time.Local
	}
	return loc
}

func (a *App) defaults() session.Defaults {
	return session.Defaults{
		SinceDays:      a.cfg.Sync.SinceDays,
		Categories:     a.cfg.CategoryNames(),
		CapPerCategory: a.cfg.View.CapPerCategory,
		Location:       a.location(),
	}
}

func (a *App) session(ctx context.Context) (session.Session, error) {
	return session.Load(ctx, a.store, a.cfg.User, a.defaults())
}

func (a *App) engine() (*mailsync.Engine, error) {
	v, err := a.credentials()
	if err != nil {
		return nil, err
	}
	password, err := v.Lookup(credential.IMAPPassword(a.cfg.User), "MAILCACHE_IMAP_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("imap password (run mailcache login): %w", err)
	}
	client := email.NewIMAPClient(a.cfg.IMAP.Host, a.cfg.IMAP.Port, a.cfg.IMAP.Username, password, a.cfg.IMAP.TLS)
	reader := email.NewReader(client, a.cfg.FolderMap(), a.log)

	e := mailsync.NewEngine(reader, a.store, a.log)
	if a.cfg.Sync.Concurrency > 0 {
		e.Concurrency = a.cfg.Sync.Concurrency
	}
	return e, nil
}

func (a *App) views() *view.Builder {
	return view.NewBuilder(a.store, a.location(), a.cfg.View.CapPerCategory)
}

// drafts builds the drafting service. A missing SMTP password leaves the
// service without a sender; sending then fails while drafting still works.
func (a *App) drafts() (*drafting.Service, error) {
	v, err := a.credentials()
	if err != nil {
		return nil, err
	}
	apiKey, err := v.Lookup(credential.AnthropicAPIKey, anthropicKeyEnv)
	if err != nil {
		return nil, fmt.Errorf("anthropic api key (set %s or run mailcache login): %w", anthropicKeyEnv, err)
	}
	client := ai.NewClient(apiKey, a.cfg.AI, a.log)

	var sender drafting.Sender
	smtpPassword, err := v.Lookup(credential.SMTPPassword(a.cfg.User), "MAILCACHE_SMTP_PASSWORD")
	switch {
	case err == nil:
		sender = email.NewSMTPSender(a.cfg.SMTP, smtpPassword)
	case errors.Is(err, credential.ErrNotFound):
		a.log.Warn("no smtp password stored, sending disabled", zap.String("user", a.cfg.User))
	default:
		return nil, err
	}

	return drafting.NewService(a.store, client, sender, a.log), nil
}

func (a *App) timeout(sec int) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}

// resolveMessage accepts a full identity or a unique prefix of one, as
// printed by list.
func (a *App) resolveMessage(ctx context.Context, ref string) (*model.Message, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("message identity is required")
	}
	msg, err := a.store.GetMessage(ctx, a.cfg.User, ref)
	if err == nil {
		return msg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	all, err := a.store.ListMessages(ctx, store.MessageFilter{UserID: a.cfg.User})
	if err != nil {
		return nil, err
	}
	var match *model.Message
	for i := range all {
		if !strings.HasPrefix(all[i].Identity, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("message %q is ambiguous", ref)
		}
		match = &all[i]
	}
	if match == nil {
		return nil, fmt.Errorf("message %q: %w", ref, store.ErrNotFound)
	}
	return match, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
