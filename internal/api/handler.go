// Package api exposes the sync, view and drafting operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/mailcache/internal/drafting"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
	"github.com/nhle/mailcache/internal/source"
	"github.com/nhle/mailcache/internal/store"
	mailsync "github.com/nhle/mailcache/internal/sync"
	"github.com/nhle/mailcache/internal/view"
)

// errBadRequest marks invalid request input.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Options configures a Handler.
type Options struct {
	// User owns the mailbox and SMTP account behind the engine and
	// sender. Requests for any other user get 404.
	User string

	Defaults    session.Defaults
	MaxResults  int
	SyncTimeout time.Duration
	AITimeout   time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	store  store.Store
	engine *mailsync.Engine
	views  *view.Builder
	drafts *drafting.Service
	opts   Options
	log    *zap.Logger
}

// NewHandler creates a handler over the core services.
func NewHandler(
	s store.Store,
	engine *mailsync.Engine,
	views *view.Builder,
	drafts *drafting.Service,
	opts Options,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: s, engine: engine, views: views, drafts: drafts, opts: opts, log: log}
}

// Router returns the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	u := r.Group("/api/v1/users/:user", h.requireUser)
	u.POST("/sync", h.sync)
	u.GET("/messages", h.listMessages)
	u.GET("/messages/:identity", h.getMessage)
	u.POST("/messages/:identity/summary", h.summarize)
	u.POST("/messages/:identity/drafts", h.generateDraft)
	u.POST("/messages/:identity/done", h.markDone)
	u.POST("/messages/:identity/analysis", h.analyze)
	u.POST("/drafts/:id/send", h.sendDraft)
	u.GET("/preferences", h.listPreferences)
	u.PUT("/preferences/:key", h.setPreference)
	u.GET("/stats", h.stats)

	return r
}

// requireUser rejects users other than the one the handler was built for.
func (h *Handler) requireUser(c *gin.Context) {
	user := c.Param("user")
	if h.opts.User == "" || user != h.opts.User {
		h.fail(c, fmt.Errorf("user %q: %w", user, store.ErrNotFound))
		c.Abort()
		return
	}
	c.Next()
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, drafting.ErrAlreadySent):
		return http.StatusConflict
	case errors.Is(err, drafting.ErrSendFailed):
		return http.StatusBadGateway
	case errors.Is(err, drafting.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, drafting.ErrAuth):
		return http.StatusBadGateway
	case errors.Is(err, drafting.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) withTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), d)
}

func (h *Handler) session(c *gin.Context) (session.Session, error) {
	return session.Load(c.Request.Context(), h.store, c.Param("user"), h.opts.Defaults)
}

func (h *Handler) location() *time.Location {
	if h.opts.Defaults.Location != nil {
		return h.opts.Defaults.Location
	}
	return time.Local
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(session.DateLayout, s, h.location())
	if err != nil {
		return time.Time{}, badRequest("date %q must look like %s", s, session.DateLayout)
	}
	return t, nil
}

type syncRequest struct {
	Category   string `json:"category"`
	Since      string `json:"since"`
	MaxResults int    `json:"max_results"`
}

func (h *Handler) sync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, badRequest("%v", err))
			return
		}
	}

	sess, err := h.session(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	since := sess.Since
	if req.Since != "" {
		if since, err = h.parseDate(req.Since); err != nil {
			h.fail(c, err)
			return
		}
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = h.opts.MaxResults
	}

	ctx, cancel := h.withTimeout(c, h.opts.SyncTimeout)
	defer cancel()

	var res mailsync.Result
	if req.Category != "" {
		res, err = h.engine.Sync(ctx, sess, source.Filter{
			Category:   model.Category(req.Category),
			Since:      since,
			MaxResults: maxResults,
		})
	} else {
		res, err = h.engine.SyncCategories(ctx, sess, since, maxResults)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listMessages(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if s := c.Query("since"); s != "" {
		if sess.Since, err = h.parseDate(s); err != nil {
			h.fail(c, err)
			return
		}
	}
	if cs := model.ParseCategories(c.Query("category")); len(cs) > 0 {
		sess.Categories = cs
	}
	if s := c.Query("cap"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(c, badRequest("cap %q must be a non-negative number", s))
			return
		}
		sess.CapPerCategory = n
	}

	groups, err := h.views.ListSession(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"since":      sess.Since.Format(session.DateLayout),
		"categories": groups,
	})
}

func (h *Handler) message(c *gin.Context) (*model.Message, bool) {
	msg, err := h.store.GetMessage(c.Request.Context(), c.Param("user"), c.Param("identity"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return msg, true
}

func (h *Handler) getMessage(c *gin.Context) {
	msg, ok := h.message(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	resp := gin.H{"message": msg}
	summary, err := h.store.GetSummary(ctx, msg.UserID, msg.Identity)
	switch {
	case err == nil:
		resp["summary"] = summary.Text
	case !errors.Is(err, store.ErrNotFound):
		h.fail(c, err)
		return
	}

	drafts, err := h.store.ListReplyDrafts(ctx, msg.UserID, msg.Identity)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp["drafts"] = drafts
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) summarize(c *gin.Context) {
	msg, ok := h.message(c)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(c, h.opts.AITimeout)
	defer cancel()

	text, err := h.drafts.GetOrCreateSummary(ctx, msg.UserID, *msg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": text})
}

type draftRequest struct {
	Intent string `json:"intent"`
}

func (h *Handler) generateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("%v", err))
		return
	}
	msg, ok := h.message(c)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(c, h.opts.AITimeout)
	defer cancel()

	draft, err := h.drafts.GenerateDraft(ctx, msg.UserID, *msg, req.Intent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (h *Handler) markDone(c *gin.Context) {
	if err := h.drafts.MarkHandled(c.Request.Context(), c.Param("user"), c.Param("identity")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) analyze(c *gin.Context) {
	msg, ok := h.message(c)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(c, h.opts.AITimeout)
	defer cancel()

	analysis, err := h.drafts.Analyze(ctx, msg.UserID, *msg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type sendRequest struct {
	FinalText string `json:"final_text"`
}

func (h *Handler) sendDraft(c *gin.Context) {
	var req sendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, badRequest("%v", err))
			return
		}
	}
	if err := h.drafts.SendDraft(c.Request.Context(), c.Param("user"), c.Param("id"), req.FinalText); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (h *Handler) listPreferences(c *gin.Context) {
	prefs, err := h.store.ListPreferences(c.Request.Context(), c.Param("user"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

type preferenceRequest struct {
	Value string `json:"value"`
}

func (h *Handler) setPreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("%v", err))
		return
	}
	key := c.Param("key")
	if err := ValidatePreference(key, req.Value); err != nil {
		h.fail(c, badRequest("%v", err))
		return
	}
	if err := h.store.SetPreference(c.Request.Context(), c.Param("user"), key, req.Value); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")

	stats, err := h.store.UserStats(ctx, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	counts, err := h.store.CategoryCounts(ctx, user, nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "categories": counts})
}

// ValidatePreference checks the value of a well-known preference key.
// Other keys accept any value.
func ValidatePreference(key, value string) error {
	switch key {
	case model.PrefDefaultFilterDate:
		if _, err := time.Parse(session.DateLayout, value); err != nil {
			return fmt.Errorf("%s must look like %s", key, session.DateLayout)
		}
	case model.PrefSelectedCategories:
		if len(model.ParseCategories(value)) == 0 {
			return fmt.Errorf("%s needs at least one category", key)
		}
	case "":
		return errors.New("preference key is required")
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("preference key %q has surrounding spaces", key)
	}
	return nil
}
