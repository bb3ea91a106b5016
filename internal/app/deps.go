package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ragdash/internal/apiclient"
	"ragdash/internal/model"
)

type DocumentAPI interface {
	ListDocuments(ctx context.Context, q apiclient.DocumentQuery) (*apiclient.DocumentList, error)
	GetDocument(ctx context.Context, id string) (*model.DocumentDetail, error)
	UploadDocument(ctx context.Context, fileName string, content []byte, fields map[string]string) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type ChatAPI interface {
	ListChatRooms(ctx context.Context, userID string) ([]model.ChatSession, error)
	CreateChatRoom(ctx context.Context, in apiclient.CreateChatRoomInput) (*model.ChatSession, error)
	DeleteChatRoom(ctx context.Context, id string) error
}

type ConversationAPI interface {
	ListMessages(ctx context.Context, roomID string) ([]model.ChatMessage, error)
	Query(ctx context.Context, q model.QueryRequest) (*model.QueryAnswer, error)
}

type Notifier interface {
	Notify(level model.Level, message string)
}

type ActivityRecorder interface {
	Record(ctx context.Context, event model.ActivityEvent) error
}

type TranscriptCache interface {
	Get(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error)
	Set(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	Delete(ctx context.Context, sessionID string) error
}

// UserIDFunc resolves the requesting user for calls that carry a user id.
type UserIDFunc func(ctx context.Context) string

func StaticUserID(id string) UserIDFunc {
	return func(context.Context) string { return id }
}

type nopNotifier struct{}

func (nopNotifier) Notify(model.Level, string) {}

func recordActivity(ctx context.Context, rec ActivityRecorder, log *zap.Logger, event model.ActivityEvent) {
	if rec == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := rec.Record(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("record activity failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func orNopNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
