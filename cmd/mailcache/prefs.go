package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/api"
	"github.com/nhle/mailcache/internal/display"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change saved preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := app.store.ListPreferences(cmd.Context(), app.cfg.User)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, prefs)
		}
		if len(prefs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), display.Muted.Render("no preferences saved"))
			return nil
		}
		for _, p := range prefs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", display.Bold.Render(p.Key), p.Value)
		}
		return nil
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := app.store.GetPreference(cmd.Context(), app.cfg.User, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, map[string]string{"key": args[0], "value": value})
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save one preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.ValidatePreference(args[0], args[1]); err != nil {
			return err
		}
		if err := app.store.SetPreference(cmd.Context(), app.cfg.User, args[0], args[1]); err != nil {
			return err
		}
		if !quietFlag && !jsonOutput {
			app.out.SuccessMsg("Saved %s", args[0])
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics for the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stats, err := app.store.UserStats(ctx, app.cfg.User)
		if err != nil {
			return err
		}
		counts, err := app.store.CategoryCounts(ctx, app.cfg.User, nil)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"stats": stats, "categories": counts})
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, display.HeaderStyle.Render("Messages"))
		fmt.Fprintf(w, "  total      %d\n", stats.TotalMessages)
		fmt.Fprintf(w, "  processed  %d\n", stats.ProcessedMessages)
		fmt.Fprintf(w, "  summaries  %d\n", stats.Summaries)
		fmt.Fprintf(w, "  drafted    %d\n", stats.RepliesDrafted)
		fmt.Fprintf(w, "  sent       %d\n", stats.RepliesSent)
		if len(counts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, display.HeaderStyle.Render("Categories"))
			for _, c := range counts {
				fmt.Fprintf(w, "  %-12s %d\n", c.Category, c.Count)
			}
		}
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)

	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(statsCmd)
}
