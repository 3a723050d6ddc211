package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
	"github.com/nhle/mailcache/internal/source"
	mailsync "github.com/nhle/mailcache/internal/sync"
)

var (
	syncCategory string
	syncSince    string
	syncMax      int
	syncAll      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch mail into the local cache",
	Long: `Fetch messages from the mail server and upsert them into the cache.

By default every category in the session is synced. Use --category to
sync a single one. Re-running a sync never duplicates messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), app.timeout(app.cfg.Sync.TimeoutSec))
		defer cancel()

		sess, err := app.session(ctx)
		if err != nil {
			return err
		}
		since := sess.Since
		if syncSince != "" {
			since, err = time.ParseInLocation(session.DateLayout, syncSince, app.location())
			if err != nil {
				return fmt.Errorf("invalid --since %q (want YYYY-MM-DD)", syncSince)
			}
		}
		if syncAll {
			sess.Categories = app.cfg.CategoryNames()
		}
		maxResults := syncMax
		if maxResults <= 0 {
			maxResults = app.cfg.Sync.MaxResults
		}

		engine, err := app.engine()
		if err != nil {
			return err
		}

		var res mailsync.Result
		if syncCategory != "" {
			res, err = engine.Sync(ctx, sess, source.Filter{
				Category:   model.Category(syncCategory),
				Since:      since,
				MaxResults: maxResults,
			})
		} else {
			res, err = engine.SyncCategories(ctx, sess, since, maxResults)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, res)
		}
		if !quietFlag {
			app.out.SuccessMsg("Synced: %d new, %d updated, %d skipped", res.Created, res.Updated, res.Skipped)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync on the configured schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := app.engine()
		if err != nil {
			return err
		}

		sched, err := mailsync.NewScheduler(
			app.cfg.Sync.Schedule,
			app.timeout(app.cfg.Sync.TimeoutSec),
			scheduledSync(engine),
			app.log,
		)
		if err != nil {
			return err
		}

		if !quietFlag {
			app.out.SuccessMsg("Watching (%s), Ctrl-C to stop", app.cfg.Sync.Schedule)
		}
		sched.Start(ctx)
		sched.RunNow()

		<-ctx.Done()
		<-sched.Stop().Done()

		st := sched.Status()
		app.log.Info("watch stopped",
			zap.String("state", st.State.String()),
			zap.Time("last_run", st.LastRun))
		return nil
	},
}

// scheduledSync reloads the session on every run so preference changes
// made elsewhere apply to the next pass.
func scheduledSync(engine *mailsync.Engine) mailsync.Job {
	return func(ctx context.Context) (mailsync.Result, error) {
		sess, err := app.session(ctx)
		if err != nil {
			return mailsync.Result{}, err
		}
		return engine.SyncCategories(ctx, sess, sess.Since, app.cfg.Sync.MaxResults)
	}
}

func init() {
	syncCmd.Flags().StringVarP(&syncCategory, "category", "c", "", "Sync a single category")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "Only messages on or after this date (YYYY-MM-DD)")
	syncCmd.Flags().IntVarP(&syncMax, "max", "n", 0, "Maximum messages per category")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every configured category, ignoring the saved selection")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}
