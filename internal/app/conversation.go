package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragdash/internal/metrics"
	"ragdash/internal/model"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

const DefaultTopK = 3

// ConversationService owns the transcript of the active session and the
// question/answer cycle. A session switch starts a new view: requests made
// for the previous view are cancelled and their results discarded.
type ConversationService struct {
	api      ConversationAPI
	cache    TranscriptCache
	notifier Notifier
	activity ActivityRecorder
	log      *zap.Logger
	userID   UserIDFunc
	topK     int
	now      func() time.Time

	mu         sync.Mutex
	session    *model.ChatSession
	messages   []model.ChatMessage
	state      State
	pending    *model.ChatMessage
	generation uint64
	viewCtx    context.Context
	viewCancel context.CancelFunc
}

func NewConversationService(
	api ConversationAPI,
	cache TranscriptCache,
	topK int,
	userID UserIDFunc,
	notifier Notifier,
	activity ActivityRecorder,
	log *zap.Logger,
) *ConversationService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if userID == nil {
		userID = StaticUserID("")
	}
	return &ConversationService{
		api:      api,
		cache:    cache,
		notifier: orNopNotifier(notifier),
		activity: activity,
		log:      orNop(log),
		userID:   userID,
		topK:     topK,
		now:      time.Now,
		state:    StateIdle,
	}
}

// ActiveSessionChanged replaces the transcript with the new session's
// messages. It is called by SessionService.
func (c *ConversationService) ActiveSessionChanged(ctx context.Context, session *model.ChatSession) {
	c.mu.Lock()
	if c.viewCancel != nil {
		c.viewCancel()
	}
	c.generation++
	gen := c.generation
	c.messages = nil
	c.state = StateIdle
	c.pending = nil
	if session == nil {
		c.session = nil
		c.viewCtx, c.viewCancel = nil, nil
		c.mu.Unlock()
		return
	}
	current := *session
	c.session = &current
	viewCtx, cancel := context.WithCancel(context.Background())
	c.viewCtx, c.viewCancel = viewCtx, cancel
	c.mu.Unlock()

	c.load(ctx, viewCtx, gen, current.ID)
}

// Reload fetches the active session's messages again. It is refused while
// a question is awaiting its answer.
func (c *ConversationService) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return &StateError{Err: ErrNoActiveSession}
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return &StateError{Err: ErrSubmissionInProgress}
	}
	gen, viewCtx, id := c.generation, c.viewCtx, c.session.ID
	c.mu.Unlock()

	c.load(ctx, viewCtx, gen, id)
	return nil
}

func (c *ConversationService) load(ctx, viewCtx context.Context, gen uint64, sessionID string) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(viewCtx, cancel)
	defer stop()

	msgs, err := c.api.ListMessages(reqCtx, sessionID)
	if err != nil {
		if viewCtx.Err() != nil {
			return
		}
		c.log.Warn("fetch chat messages failed", zap.String("session_id", sessionID), zap.Error(err))
		cached, ok := c.cachedTranscript(ctx, sessionID)
		if !ok {
			c.notifier.Notify(model.LevelError, "Failed to fetch chat messages: "+UserMessage(err))
			return
		}
		c.notifier.Notify(model.LevelInfo, "Showing saved messages; the server could not be reached")
		msgs = cached
	} else {
		c.storeTranscript(ctx, sessionID, msgs)
	}

	c.mu.Lock()
	if c.generation == gen {
		c.messages = msgs
		// The server history predates a question still in flight.
		if c.pending != nil {
			c.messages = append(c.messages, *c.pending)
		}
	}
	c.mu.Unlock()
}

// Submit asks a question in the active session. The question is shown
// immediately; the answer is appended when it arrives. On failure the
// question stays in the transcript marked failed. Nothing is retried.
func (c *ConversationService) Submit(ctx context.Context, question string) (*model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &ValidationError{Field: "question", Err: ErrEmptyQuestion}
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, &StateError{Err: ErrNoActiveSession}
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, &StateError{Err: ErrSubmissionInProgress}
	}
	gen, viewCtx, session := c.generation, c.viewCtx, *c.session
	userMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleUser,
		Content:   question,
		Timestamp: c.now(),
		Status:    model.MessageSent,
	}
	c.messages = append(c.messages, userMsg)
	c.state = StateSubmitting
	c.pending = &userMsg
	c.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(viewCtx, cancel)
	defer stop()

	start := c.now()
	answer, err := c.api.Query(reqCtx, model.QueryRequest{
		Question:    question,
		SessionID:   session.ID,
		DocumentIDs: session.Contexts,
		TopK:        c.topK,
		UserID:      c.userID(ctx),
	})

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.log.Debug("discarding answer for a previous view", zap.String("session_id", session.ID))
		return nil, &StateError{Err: ErrViewChanged}
	}
	c.state = StateIdle
	c.pending = nil
	if err != nil {
		for i := range c.messages {
			if c.messages[i].ID == userMsg.ID {
				c.messages[i].Status = model.MessageFailed
			}
		}
		c.mu.Unlock()

		metrics.QueryTotal.WithLabelValues("failed").Inc()
		c.log.Warn("query failed", zap.String("session_id", session.ID), zap.Error(err))
		c.notifier.Notify(model.LevelError, "Failed to get an answer: "+UserMessage(err))
		recordActivity(ctx, c.activity, c.log, model.ActivityEvent{
			Kind: model.ActivityQuery, Status: model.ActivityFailed,
			SessionID: session.ID, Subject: question, UserID: c.userID(ctx),
		})
		return nil, fmt.Errorf("submit question failed: %w", err)
	}

	reply := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleAssistant,
		Content:   answer.Text,
		Timestamp: c.now(),
		Sources:   answer.Sources,
		Status:    model.MessageSent,
	}
	c.messages = append(c.messages, reply)
	snapshot := append([]model.ChatMessage(nil), c.messages...)
	c.mu.Unlock()

	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.CitationsPerAnswer.Observe(float64(len(reply.Sources)))
	c.log.Info("question answered",
		zap.String("session_id", session.ID),
		zap.Int("sources", len(reply.Sources)),
		zap.Duration("elapsed", c.now().Sub(start)),
	)
	c.storeTranscript(ctx, session.ID, snapshot)
	recordActivity(ctx, c.activity, c.log, model.ActivityEvent{
		Kind: model.ActivityQuery, Status: model.ActivitySuccess,
		SessionID: session.ID, Subject: question, UserID: c.userID(ctx),
	})
	return &reply, nil
}

// SessionRemoved drops the cached transcript of a deleted session.
func (c *ConversationService) SessionRemoved(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(context.WithoutCancel(ctx), id); err != nil {
		c.log.Warn("drop cached transcript failed", zap.String("session_id", id), zap.Error(err))
	}
}

// Clear empties the local transcript. Server history is not touched. It is
// refused while a question is awaiting its answer.
func (c *ConversationService) Clear() error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return &StateError{Err: ErrSubmissionInProgress}
	}
	c.messages = nil
	c.mu.Unlock()
	c.notifier.Notify(model.LevelSuccess, "Conversation cleared")
	return nil
}

// Close cancels any in-flight request of the current view.
func (c *ConversationService) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.viewCancel != nil {
		c.viewCancel()
	}
}

func (c *ConversationService) Transcript() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatMessage(nil), c.messages...)
}

func (c *ConversationService) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ConversationService) Session() *model.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// LastAnswer returns the most recent assistant message, if any.
func (c *ConversationService) LastAnswer() (model.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleAssistant {
			return c.messages[i], true
		}
	}
	return model.ChatMessage{}, false
}

func (c *ConversationService) cachedTranscript(ctx context.Context, sessionID string) ([]model.ChatMessage, bool) {
	if c.cache == nil {
		return nil, false
	}
	msgs, ok, err := c.cache.Get(context.WithoutCancel(ctx), sessionID)
	if err != nil {
		c.log.Warn("read cached transcript failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}
	if ok {
		metrics.TranscriptCache.WithLabelValues("hit").Inc()
	} else {
		metrics.TranscriptCache.WithLabelValues("miss").Inc()
	}
	return msgs, ok
}

func (c *ConversationService) storeTranscript(ctx context.Context, sessionID string, msgs []model.ChatMessage) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(context.WithoutCancel(ctx), sessionID, msgs); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("cache transcript failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
