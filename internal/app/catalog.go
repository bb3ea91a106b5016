package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragdash/internal/apiclient"
	"ragdash/internal/metrics"
	"ragdash/internal/model"
	"ragdash/internal/pkg/pdfinspect"
)

const (
	DefaultMaxUploadBytes int64 = 10 << 20
	pdfPreviewLen               = 280
)

type SortField string

const (
	SortByName   SortField = "name"
	SortByDate   SortField = "date"
	SortByChunks SortField = "chunks"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type DocumentFilter struct {
	Search   string
	FileType string
	Sort     SortField
	Order    SortOrder
	Page     int
	Limit    int
}

func (f DocumentFilter) normalized() (DocumentFilter, error) {
	if f.Sort == "" {
		f.Sort = SortByDate
	}
	if f.Order == "" {
		f.Order = OrderDesc
	}
	switch f.Sort {
	case SortByName, SortByDate, SortByChunks:
	default:
		return f, &ValidationError{Field: "sort", Err: ErrInvalidSort}
	}
	if f.Order != OrderAsc && f.Order != OrderDesc {
		return f, &ValidationError{Field: "order", Err: ErrInvalidSort}
	}
	f.FileType = strings.ToLower(strings.TrimSpace(f.FileType))
	if f.FileType == "all" {
		f.FileType = ""
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadFailed    UploadStatus = "error"
)

type UploadInput struct {
	FileName string
	Content  []byte
}

// UploadItem tracks one file of a batch upload.
type UploadItem struct {
	ID         string       `json:"id"`
	FileName   string       `json:"file_name"`
	SizeBytes  int64        `json:"size_bytes"`
	Status     UploadStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	DocumentID string       `json:"document_id,omitempty"`
}

type CatalogConfig struct {
	MaxUploadBytes int64
	AllowedTypes   []string
}

type CatalogService struct {
	api      DocumentAPI
	notifier Notifier
	activity ActivityRecorder
	log      *zap.Logger

	maxUploadBytes int64
	allowedTypes   map[string]struct{}

	mu      sync.Mutex
	docs    []model.Document
	uploads []UploadItem
}

func NewCatalogService(api DocumentAPI, cfg CatalogConfig, notifier Notifier, activity ActivityRecorder, log *zap.Logger) *CatalogService {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	types := cfg.AllowedTypes
	if len(types) == 0 {
		types = []string{"pdf", "txt"}
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))] = struct{}{}
	}
	return &CatalogService{
		api:            api,
		notifier:       orNopNotifier(notifier),
		activity:       activity,
		log:            orNop(log),
		maxUploadBytes: maxBytes,
		allowedTypes:   allowed,
	}
}

// List fetches the catalog and replaces the cached list. The backend is asked
// to sort; when it does not echo the requested order, the result is sorted
// locally. The name filter is always applied locally.
func (s *CatalogService) List(ctx context.Context, filter DocumentFilter) (*model.DocumentPage, error) {
	filter, err := filter.normalized()
	if err != nil {
		return nil, err
	}

	list, err := s.api.ListDocuments(ctx, apiclient.DocumentQuery{
		Search:   filter.Search,
		FileType: filter.FileType,
		Sort:     string(filter.Sort),
		Order:    string(filter.Order),
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		s.notifier.Notify(model.LevelError, "Failed to fetch documents: "+UserMessage(err))
		return nil, fmt.Errorf("list documents failed: %w", err)
	}

	docs := FilterDocuments(list.Documents, filter.Search, filter.FileType)
	if list.Sort != string(filter.Sort) || list.Order != string(filter.Order) {
		SortDocuments(docs, filter.Sort, filter.Order)
	}

	page := list.DocumentPage
	page.Documents = docs

	s.mu.Lock()
	s.docs = append([]model.Document(nil), docs...)
	s.mu.Unlock()

	return &page, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.DocumentDetail, error) {
	detail, err := s.api.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return detail, nil
}

// Delete removes a document. A document the backend no longer knows about
// counts as deleted. On any other failure the cached list is untouched.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteDocument(ctx, id)
	if err != nil && !apiclient.IsNotFound(err) {
		s.notifier.Notify(model.LevelError, "Failed to delete document: "+UserMessage(err))
		recordActivity(ctx, s.activity, s.log, model.ActivityEvent{Kind: model.ActivityDelete, Status: model.ActivityFailed, Subject: id})
		return fmt.Errorf("delete document failed: %w", err)
	}

	s.mu.Lock()
	name := id
	kept := s.docs[:0]
	for _, d := range s.docs {
		if d.ID == id {
			name = d.Name
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	s.mu.Unlock()

	s.notifier.Notify(model.LevelSuccess, "Deleted "+name)
	recordActivity(ctx, s.activity, s.log, model.ActivityEvent{Kind: model.ActivityDelete, Status: model.ActivitySuccess, Subject: name})
	return nil
}

// ValidateUpload checks type and size without touching the network.
func (s *CatalogService) ValidateUpload(fileName string, size int64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := s.allowedTypes[ext]; !ok {
		return &ValidationError{Field: "file", Err: ErrFileType}
	}
	if size > s.maxUploadBytes {
		return &ValidationError{Field: "file", Err: ErrFileTooLarge}
	}
	return nil
}

func (s *CatalogService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	doc, err := s.upload(ctx, in)
	if err != nil {
		s.notifier.Notify(model.LevelError, UserMessage(err))
		return nil, err
	}
	s.notifier.Notify(model.LevelSuccess, "Uploaded "+doc.Name)
	return doc, nil
}

func (s *CatalogService) upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if err := s.ValidateUpload(in.FileName, int64(len(in.Content))); err != nil {
		metrics.UploadTotal.WithLabelValues("rejected").Inc()
		return nil, &UploadError{FileName: in.FileName, Err: err}
	}

	var fields map[string]string
	var preview string
	if strings.EqualFold(filepath.Ext(in.FileName), ".pdf") {
		info, err := pdfinspect.Inspect(in.Content, pdfPreviewLen)
		if err != nil {
			s.log.Warn("inspect pdf failed", zap.String("file", in.FileName), zap.Error(err))
		} else {
			fields = map[string]string{"pages": strconv.Itoa(info.Pages)}
			preview = info.Preview
		}
	}

	doc, err := s.api.UploadDocument(ctx, in.FileName, in.Content, fields)
	if err != nil {
		metrics.UploadTotal.WithLabelValues("failed").Inc()
		recordActivity(ctx, s.activity, s.log, model.ActivityEvent{Kind: model.ActivityUpload, Status: model.ActivityFailed, Subject: in.FileName})
		return nil, &UploadError{FileName: in.FileName, Err: err}
	}
	if doc.Summary == "" {
		doc.Summary = preview
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	s.mu.Lock()
	replaced := false
	for i := range s.docs {
		if doc.ID != "" && s.docs[i].ID == doc.ID {
			s.docs[i] = *doc
			replaced = true
			break
		}
	}
	if !replaced {
		s.docs = append(s.docs, *doc)
	}
	s.mu.Unlock()

	metrics.UploadTotal.WithLabelValues("success").Inc()
	recordActivity(ctx, s.activity, s.log, model.ActivityEvent{Kind: model.ActivityUpload, Status: model.ActivitySuccess, Subject: doc.Name})
	s.log.Info("document uploaded", zap.String("file", in.FileName), zap.String("id", doc.ID), zap.Int("chunks", doc.Chunks))
	return doc, nil
}

// UploadBatch uploads files one at a time, in order. A failed file does not
// stop the batch. The returned items carry the final status of each file.
func (s *CatalogService) UploadBatch(ctx context.Context, files []UploadInput) []UploadItem {
	ids := make([]string, len(files))
	s.mu.Lock()
	for i, f := range files {
		ids[i] = uuid.NewString()
		s.uploads = append(s.uploads, UploadItem{
			ID:        ids[i],
			FileName:  f.FileName,
			SizeBytes: int64(len(f.Content)),
			Status:    UploadIdle,
		})
	}
	s.mu.Unlock()

	out := make([]UploadItem, 0, len(files))
	for i, f := range files {
		if ctx.Err() != nil {
			out = append(out, s.finishUpload(ids[i], nil, ErrUploadCancelled))
			continue
		}
		s.setUploadStatus(ids[i], UploadUploading)
		doc, err := s.Upload(ctx, f)
		out = append(out, s.finishUpload(ids[i], doc, err))
	}
	return out
}

// Uploads returns the upload queue, oldest first.
func (s *CatalogService) Uploads() []UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadItem(nil), s.uploads...)
}

// ClearFinishedUploads drops items that are no longer pending.
func (s *CatalogService) ClearFinishedUploads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.uploads[:0]
	for _, u := range s.uploads {
		if u.Status == UploadIdle || u.Status == UploadUploading {
			kept = append(kept, u)
		}
	}
	s.uploads = kept
}

func (s *CatalogService) setUploadStatus(id string, status UploadStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uploads {
		if s.uploads[i].ID == id {
			s.uploads[i].Status = status
			return
		}
	}
}

func (s *CatalogService) finishUpload(id string, doc *model.Document, err error) UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uploads {
		if s.uploads[i].ID != id {
			continue
		}
		if err != nil {
			s.uploads[i].Status = UploadFailed
			s.uploads[i].Error = UserMessage(err)
			if errors.Is(err, ErrUploadCancelled) {
				s.uploads[i].Error = err.Error()
			}
		} else {
			s.uploads[i].Status = UploadSuccess
			s.uploads[i].DocumentID = doc.ID
		}
		return s.uploads[i]
	}
	return UploadItem{ID: id}
}

// Documents returns the cached list from the last List call plus any
// uploads and deletes since.
func (s *CatalogService) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Document(nil), s.docs...)
}

// FilterDocuments keeps documents whose name or summary contains search
// (case-insensitive) and whose file type matches fileType when set.
func FilterDocuments(docs []model.Document, search, fileType string) []model.Document {
	search = strings.ToLower(strings.TrimSpace(search))
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if fileType != "" && fileType != "all" && strings.ToLower(d.FileType) != fileType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(d.Summary), search) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// SortDocuments sorts in place. Ties keep their original relative order in
// both directions.
func SortDocuments(docs []model.Document, field SortField, order SortOrder) {
	cmp := func(a, b model.Document) int {
		switch field {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByChunks:
			return a.Chunks - b.Chunks
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := cmp(docs[i], docs[j])
		if order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}
