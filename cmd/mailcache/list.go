package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
)

var (
	listSince      string
	listCategories string
	listCap        int
	listSave       bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show cached messages grouped by category",
	Long: `Show cached messages received on or after the session date, grouped
by category, newest first. Flags override the saved session for this
run; --save stores them as the new defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := app.session(ctx)
		if err != nil {
			return err
		}

		if listSince != "" {
			since, err := time.ParseInLocation(session.DateLayout, listSince, app.location())
			if err != nil {
				return err
			}
			sess.Since = since
		}
		if listCategories != "" {
			sess.Categories = model.ParseCategories(listCategories)
		}
		if listCap > 0 {
			sess.CapPerCategory = listCap
		}
		if listSave {
			if err := sess.Save(ctx, app.store); err != nil {
				return err
			}
		}

		v, err := app.views().ListSession(ctx, sess)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{
				"since":      sess.Since.Format(session.DateLayout),
				"categories": v,
			})
		}
		app.out.View(v, sess.Categories)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSince, "since", "", "Show messages on or after this date (YYYY-MM-DD)")
	listCmd.Flags().StringVarP(&listCategories, "category", "c", "", "Comma-separated categories to show")
	listCmd.Flags().IntVarP(&listCap, "cap", "n", 0, "Maximum messages per category")
	listCmd.Flags().BoolVar(&listSave, "save", false, "Save --since and --category as defaults")

	rootCmd.AddCommand(listCmd)
}
