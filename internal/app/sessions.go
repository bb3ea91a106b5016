package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ragdash/internal/apiclient"
	"ragdash/internal/model"
)

// ActiveSessionListener is told when the selected session changes. A nil
// session means nothing is selected.
type ActiveSessionListener interface {
	ActiveSessionChanged(ctx context.Context, session *model.ChatSession)
}

// SessionRemovedListener is optionally implemented by listeners that keep
// per-session state.
type SessionRemovedListener interface {
	SessionRemoved(ctx context.Context, id string)
}

type CreateSessionInput struct {
	Name     string
	Contexts []string
	Provider model.Provider
}

type SessionService struct {
	api             ChatAPI
	notifier        Notifier
	log             *zap.Logger
	userID          UserIDFunc
	defaultProvider model.Provider

	mu        sync.Mutex
	sessions  []model.ChatSession
	activeID  string
	listeners []ActiveSessionListener
}

func NewSessionService(api ChatAPI, defaultProvider model.Provider, userID UserIDFunc, notifier Notifier, log *zap.Logger) *SessionService {
	if !defaultProvider.Valid() {
		defaultProvider = model.ProviderGemini
	}
	if userID == nil {
		userID = StaticUserID("")
	}
	return &SessionService{
		api:             api,
		notifier:        orNopNotifier(notifier),
		log:             orNop(log),
		userID:          userID,
		defaultProvider: defaultProvider,
	}
}

func (s *SessionService) Subscribe(l ActiveSessionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// List refreshes sessions from the backend, newest first. If the active
// session is gone, the selection is cleared.
func (s *SessionService) List(ctx context.Context) ([]model.ChatSession, error) {
	sessions, err := s.api.ListChatRooms(ctx, s.userID(ctx))
	if err != nil {
		s.notifier.Notify(model.LevelError, "Failed to fetch chats: "+UserMessage(err))
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	sortNewestFirst(sessions)

	s.mu.Lock()
	s.sessions = sessions
	lost := s.activeID != "" && s.indexLocked(s.activeID) < 0
	if lost {
		s.activeID = ""
	}
	out := s.snapshotLocked()
	s.mu.Unlock()

	if lost {
		s.notify(ctx, nil)
	}
	return out, nil
}

// Create validates the name locally, creates the session, appends it and
// makes it active. Nothing changes when the backend call fails.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (*model.ChatSession, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	provider := in.Provider
	if provider == "" {
		provider = s.defaultProvider
	}
	if !provider.Valid() {
		return nil, &ValidationError{Field: "provider", Err: ErrUnknownProvider}
	}

	created, err := s.api.CreateChatRoom(ctx, apiclient.CreateChatRoomInput{
		Name:     name,
		Contexts: in.Contexts,
		Provider: provider,
		UserID:   s.userID(ctx),
	})
	if err != nil {
		s.notifier.Notify(model.LevelError, "Failed to create chat: "+UserMessage(err))
		return nil, fmt.Errorf("create session failed: %w", err)
	}
	if created.Name == "" {
		created.Name = name
	}
	if created.Provider == "" {
		created.Provider = provider
	}
	if created.Contexts == nil {
		created.Contexts = append([]string{}, in.Contexts...)
	}

	s.mu.Lock()
	s.sessions = append(s.sessions, *created)
	s.activeID = created.ID
	created.Active = true
	active := *created
	s.mu.Unlock()

	s.log.Info("chat session created", zap.String("id", created.ID), zap.String("provider", string(provider)))
	s.notifier.Notify(model.LevelSuccess, "Created chat "+name)
	s.notify(ctx, &active)
	return created, nil
}

// Delete removes the session. Deleting the active session leaves nothing
// selected.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteChatRoom(ctx, id); err != nil {
		s.notifier.Notify(model.LevelError, "Failed to delete chat: "+UserMessage(err))
		return fmt.Errorf("delete session failed: %w", err)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	}
	wasActive := s.activeID == id
	if wasActive {
		s.activeID = ""
	}
	s.mu.Unlock()

	s.notifier.Notify(model.LevelSuccess, "Chat deleted")
	if wasActive {
		s.notify(ctx, nil)
	}
	s.mu.Lock()
	listeners := append([]ActiveSessionListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		if r, ok := l.(SessionRemovedListener); ok {
			r.SessionRemoved(ctx, id)
		}
	}
	return nil
}

// Select changes the active session without any backend call of its own.
func (s *SessionService) Select(ctx context.Context, id string) (*model.ChatSession, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, &StateError{Err: ErrSessionNotFound}
	}
	if s.activeID == id {
		session := s.sessions[i]
		session.Active = true
		s.mu.Unlock()
		return &session, nil
	}
	s.activeID = id
	session := s.sessions[i]
	session.Active = true
	s.mu.Unlock()

	s.notify(ctx, &session)
	return &session, nil
}

func (s *SessionService) Active() *model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(s.activeID); i >= 0 {
		session := s.sessions[i]
		session.Active = true
		return &session
	}
	return nil
}

func (s *SessionService) Sessions() []model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionService) notify(ctx context.Context, session *model.ChatSession) {
	s.mu.Lock()
	listeners := append([]ActiveSessionListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l.ActiveSessionChanged(ctx, session)
	}
}

func (s *SessionService) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *SessionService) snapshotLocked() []model.ChatSession {
	out := make([]model.ChatSession, len(s.sessions))
	copy(out, s.sessions)
	for i := range out {
		out[i].Active = out[i].ID == s.activeID
	}
	return out
}

func sortNewestFirst(sessions []model.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}
