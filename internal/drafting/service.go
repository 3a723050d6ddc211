// Package drafting puts the AI drafting service behind the store: it
// serves cached summaries, records reply drafts and sends them.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source/email"
	"github.com/nhle/mailcache/internal/store"
)

// Drafter generates text for a message. Implementations return errors
// matching ErrUnavailable, ErrRateLimited or ErrAuth.
type Drafter interface {
	Summarize(ctx context.Context, msg model.Message) (string, error)
	Reply(ctx context.Context, msg model.Message, intent string) (string, error)
	Sentiment(ctx context.Context, msg model.Message) (string, error)
	ActionItems(ctx context.Context, msg model.Message) (string, error)
}

// Sender transmits a reply. A nil error means it was accepted.
type Sender interface {
	Send(ctx context.Context, msg email.OutgoingMessage) error
}

// Service is the cache-aside wrapper around a Drafter.
type Service struct {
	store   store.Store
	drafter Drafter
	sender  Sender
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a drafting service. sender may be nil, in which case
// SendDraft fails with ErrSendFailed.
func NewService(s store.Store, d Drafter, sender Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, drafter: d, sender: sender, log: log, now: time.Now}
}

// GetOrCreateSummary returns the cached summary of msg, generating and
// storing it on the first request. A drafter failure is returned and
// nothing is stored, so the next request tries again.
func (s *Service) GetOrCreateSummary(ctx context.Context, userID string, msg model.Message) (string, error) {
	cached, err := s.store.GetSummary(ctx, userID, msg.Identity)
	if err == nil {
		return cached.Text, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	text, err := s.drafter.Summarize(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", msg.Identity, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("summarizing %s: empty summary: %w", msg.Identity, ErrUnavailable)
	}

	if err := s.store.SaveSummary(ctx, model.Summary{
		UserID:          userID,
		MessageIdentity: msg.Identity,
		Text:            text,
	}); err != nil {
		return "", err
	}

	// A concurrent request may have stored its summary first; serve that one.
	stored, err := s.store.GetSummary(ctx, userID, msg.Identity)
	if err != nil {
		return "", err
	}

	s.log.Debug("summary cached",
		zap.String("user", userID),
		zap.String("identity", msg.Identity))
	return stored.Text, nil
}

// GenerateDraft asks the drafter for a reply to msg following intent and
// appends it as a new draft. Repeated intents produce separate drafts.
func (s *Service) GenerateDraft(
	ctx context.Context,
	userID string,
	msg model.Message,
	intent string,
) (model.ReplyDraft, error) {
	text, err := s.drafter.Reply(ctx, msg, intent)
	if err != nil {
		return model.ReplyDraft{}, fmt.Errorf("drafting reply to %s: %w", msg.Identity, err)
	}
	if strings.TrimSpace(text) == "" {
		return model.ReplyDraft{}, fmt.Errorf("drafting reply to %s: empty reply: %w", msg.Identity, ErrUnavailable)
	}

	return s.store.CreateReplyDraft(ctx, model.ReplyDraft{
		UserID:          userID,
		MessageIdentity: msg.Identity,
		UserPrompt:      intent,
		GeneratedText:   text,
		FinalText:       text,
	})
}

// SendDraft sends a draft to the sender of its message. An empty
// finalText sends the draft's current text. On success the draft is
// marked sent and the message processed; on failure nothing changes and
// the error matches ErrSendFailed.
func (s *Service) SendDraft(ctx context.Context, userID, draftID, finalText string) error {
	draft, err := s.store.GetReplyDraft(ctx, userID, draftID)
	if err != nil {
		return err
	}
	if draft.WasSent {
		return fmt.Errorf("draft %s: %w", draftID, ErrAlreadySent)
	}
	if strings.TrimSpace(finalText) == "" {
		finalText = draft.FinalText
	}

	msg, err := s.store.GetMessage(ctx, userID, draft.MessageIdentity)
	if err != nil {
		return err
	}

	if s.sender == nil {
		return fmt.Errorf("draft %s: no sender configured: %w", draftID, ErrSendFailed)
	}
	if err := s.sender.Send(ctx, email.OutgoingMessage{
		To:      msg.Sender,
		Subject: email.ReplySubject(msg.Subject),
		Body:    finalText,
	}); err != nil {
		s.log.Warn("reply send failed",
			zap.String("user", userID),
			zap.String("draft", draftID),
			zap.Error(err))
		return fmt.Errorf("draft %s: %w: %w", draftID, ErrSendFailed, err)
	}

	if err := s.store.MarkReplySent(ctx, userID, draftID, finalText, s.now()); err != nil {
		return fmt.Errorf("recording sent draft %s: %w", draftID, err)
	}
	return nil
}

// MarkHandled marks a message processed without sending anything.
func (s *Service) MarkHandled(ctx context.Context, userID, identity string) error {
	return s.store.MarkProcessed(ctx, userID, identity)
}

// Analyze runs sentiment and action-item extraction for msg. Results are
// not cached.
func (s *Service) Analyze(ctx context.Context, userID string, msg model.Message) (model.Analysis, error) {
	var analysis model.Analysis
	s.log.Debug("analyzing message",
		zap.String("user", userID),
		zap.String("identity", msg.Identity))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		label, err := s.drafter.Sentiment(gctx, msg)
		if err != nil {
			return fmt.Errorf("sentiment of %s: %w", msg.Identity, err)
		}
		analysis.Sentiment = label
		return nil
	})
	g.Go(func() error {
		items, err := s.drafter.ActionItems(gctx, msg)
		if err != nil {
			return fmt.Errorf("action items of %s: %w", msg.Identity, err)
		}
		analysis.ActionItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Analysis{}, err
	}
	return analysis, nil
}
