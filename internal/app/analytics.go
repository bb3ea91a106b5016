package app

import (
	"context"
	"fmt"
	"time"

	"ragdash/internal/apiclient"
	"ragdash/internal/model"
)

const (
	recentQueryLimit = 5
	overviewDocLimit = 1000
)

type ActivityStore interface {
	CountByKind(ctx context.Context, kind model.ActivityKind) (int64, error)
	ListSince(ctx context.Context, kind model.ActivityKind, since time.Time) ([]model.ActivityEvent, error)
	Recent(ctx context.Context, kind model.ActivityKind, limit int) ([]model.ActivityEvent, error)
}

type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type RecentQuery struct {
	Question  string               `json:"question"`
	SessionID string               `json:"session_id"`
	Status    model.ActivityStatus `json:"status"`
	At        time.Time            `json:"at"`
}

type Overview struct {
	TotalDocuments   int            `json:"total_documents"`
	UploadedToday    int            `json:"uploaded_today"`
	TotalChunks      int            `json:"total_chunks"`
	FileTypes        map[string]int `json:"file_types"`
	TotalQueries     int64          `json:"total_queries"`
	QueriesByWeekday []WeekdayCount `json:"queries_by_weekday"`
	RecentQueries    []RecentQuery  `json:"recent_queries"`
}

// AnalyticsService builds the dashboard overview. The activity store is
// optional; without it the query figures stay empty.
type AnalyticsService struct {
	docs  DocumentAPI
	store ActivityStore
	now   func() time.Time
}

func NewAnalyticsService(docs DocumentAPI, store ActivityStore) *AnalyticsService {
	return &AnalyticsService{docs: docs, store: store, now: time.Now}
}

func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	list, err := s.docs.ListDocuments(ctx, apiclient.DocumentQuery{Limit: overviewDocLimit})
	if err != nil {
		return nil, fmt.Errorf("load documents for overview failed: %w", err)
	}

	now := s.now()
	out := &Overview{
		TotalDocuments:   list.Total,
		FileTypes:        map[string]int{},
		QueriesByWeekday: emptyWeek(),
		RecentQueries:    []RecentQuery{},
	}
	if out.TotalDocuments < len(list.Documents) {
		out.TotalDocuments = len(list.Documents)
	}
	for _, d := range list.Documents {
		out.TotalChunks += d.Chunks
		if d.FileType != "" {
			out.FileTypes[d.FileType]++
		}
		if d.UploadedOn(now) {
			out.UploadedToday++
		}
	}

	if s.store == nil {
		return out, nil
	}

	total, err := s.store.CountByKind(ctx, model.ActivityQuery)
	if err != nil {
		return nil, fmt.Errorf("count queries failed: %w", err)
	}
	out.TotalQueries = total

	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
	events, err := s.store.ListSince(ctx, model.ActivityQuery, since)
	if err != nil {
		return nil, fmt.Errorf("list recent queries failed: %w", err)
	}
	for _, e := range events {
		out.QueriesByWeekday[weekdayIndex(e.CreatedAt.In(now.Location()).Weekday())].Count++
	}

	recent, err := s.store.Recent(ctx, model.ActivityQuery, recentQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent queries failed: %w", err)
	}
	for _, e := range recent {
		out.RecentQueries = append(out.RecentQueries, RecentQuery{
			Question:  e.Subject,
			SessionID: e.SessionID,
			Status:    e.Status,
			At:        e.CreatedAt,
		})
	}
	return out, nil
}

// emptyWeek is ordered Monday first.
func emptyWeek() []WeekdayCount {
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	out := make([]WeekdayCount, len(days))
	for i, d := range days {
		out[i] = WeekdayCount{Day: d}
	}
	return out
}

func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
