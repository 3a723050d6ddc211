package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/display"
)

var showCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Show a cached message with its summary and drafts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		msg, err := app.resolveMessage(ctx, args[0])
		if err != nil {
			return err
		}
		summary, err := app.store.GetSummary(ctx, app.cfg.User, msg.Identity)
		if err != nil && !isNotFound(err) {
			return err
		}
		drafts, err := app.store.ListReplyDrafts(ctx, app.cfg.User, msg.Identity)
		if err != nil {
			return err
		}

		if jsonOutput {
			out := map[string]any{"message": msg, "drafts": drafts}
			if summary != nil {
				out["summary"] = summary.Text
			}
			return printJSON(cmd, out)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s\n", display.Bold.Render("From:"), msg.Sender)
		fmt.Fprintf(w, "%s %s\n", display.Bold.Render("Subject:"), msg.Subject)
		fmt.Fprintf(w, "%s %s (%s)\n", display.Bold.Render("Received:"),
			msg.ReceivedAt.In(app.location()).Format("2006-01-02 15:04"), msg.Category)
		fmt.Fprintln(w)
		fmt.Fprintln(w, msg.Body)
		if summary != nil {
			fmt.Fprintln(w)
			app.out.Panel("Summary", summary.Text)
		}
		for _, d := range drafts {
			fmt.Fprintln(w)
			title := "Draft " + d.ID
			if d.WasSent {
				title += " (sent)"
			}
			app.out.Panel(title, d.FinalText)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <identity>",
	Short: "Summarize a message, reusing the cached summary when present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), app.timeout(app.cfg.AI.TimeoutSec))
		defer cancel()

		msg, err := app.resolveMessage(ctx, args[0])
		if err != nil {
			return err
		}
		svc, err := app.drafts()
		if err != nil {
			return err
		}
		text, err := svc.GetOrCreateSummary(ctx, app.cfg.User, *msg)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, map[string]string{"identity": msg.Identity, "summary": text})
		}
		app.out.Panel(msg.Subject, text)
		return nil
	},
}

var draftCmd = &cobra.Command{
	Use:   "draft <identity> <intent...>",
	Short: "Generate a reply draft following an intent",
	Long: `Generate a reply draft for a message. The intent describes what the
reply should say, for example "accept the meeting and propose Friday".
Each call appends a new draft.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), app.timeout(app.cfg.AI.TimeoutSec))
		defer cancel()

		intent := strings.TrimSpace(strings.Join(args[1:], " "))
		if intent == "" {
			return fmt.Errorf("intent is required")
		}
		msg, err := app.resolveMessage(ctx, args[0])
		if err != nil {
			return err
		}
		svc, err := app.drafts()
		if err != nil {
			return err
		}
		draft, err := svc.GenerateDraft(ctx, app.cfg.User, *msg, intent)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, draft)
		}
		app.out.Panel("Draft "+draft.ID, draft.GeneratedText)
		if !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "\nSend with: mailcache send %s\n", draft.ID)
		}
		return nil
	},
}

var sendText string

var sendCmd = &cobra.Command{
	Use:   "send <draft-id>",
	Short: "Send a reply draft to the original sender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := app.drafts()
		if err != nil {
			return err
		}
		if err := svc.SendDraft(ctx, app.cfg.User, args[0], sendText); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, map[string]any{"draft_id": args[0], "sent": true})
		}
		if !quietFlag {
			app.out.SuccessMsg("Sent draft %s", args[0])
		}
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <identity>...",
	Short: "Mark messages as handled",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		for _, ref := range args {
			msg, err := app.resolveMessage(ctx, ref)
			if err != nil {
				return err
			}
			if err := app.store.MarkProcessed(ctx, app.cfg.User, msg.Identity); err != nil {
				return err
			}
			if !quietFlag && !jsonOutput {
				app.out.SuccessMsg("Marked %s done", display.ShortID(msg.Identity))
			}
		}
		if jsonOutput {
			return printJSON(cmd, map[string]any{"processed": len(args)})
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <identity>",
	Short: "Classify sentiment and extract action items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), app.timeout(app.cfg.AI.TimeoutSec))
		defer cancel()

		msg, err := app.resolveMessage(ctx, args[0])
		if err != nil {
			return err
		}
		svc, err := app.drafts()
		if err != nil {
			return err
		}
		analysis, err := svc.Analyze(ctx, app.cfg.User, *msg)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, analysis)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n", display.Bold.Render("Sentiment:"), display.SentimentBadge(analysis.Sentiment))
		app.out.Panel("Action items", analysis.ActionItems)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendText, "text", "", "Send this text instead of the draft's text")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(analyzeCmd)
}
