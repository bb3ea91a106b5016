package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdash/internal/model"
)

func seedDocs(b *fakeBackend) {
	b.docs = []map[string]any{
		{"id": "1", "fileName": "beta.pdf", "totalChunks": 4, "uploadDate": "2026-10-01T09:00:00Z", "summary": "quarterly report"},
		{"id": "2", "fileName": "alpha.txt", "totalChunks": 9, "uploadDate": "2026-10-03T09:00:00Z"},
		{"id": "3", "fileName": "Gamma.pdf", "totalChunks": 4, "uploadDate": "2026-10-02T09:00:00Z"},
	}
}

func names(docs []model.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestSortDocumentsIsStable(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.Document{
		{Name: "c", Chunks: 2, CreatedAt: day},
		{Name: "a", Chunks: 5, CreatedAt: day.Add(time.Hour)},
		{Name: "b", Chunks: 2, CreatedAt: day},
		{Name: "d", Chunks: 5, CreatedAt: day.Add(2 * time.Hour)},
	}

	tests := []struct {
		field SortField
		order SortOrder
		want  []string
	}{
		{SortByName, OrderAsc, []string{"a", "b", "c", "d"}},
		{SortByName, OrderDesc, []string{"d", "c", "b", "a"}},
		{SortByChunks, OrderAsc, []string{"c", "b", "a", "d"}},
		{SortByChunks, OrderDesc, []string{"a", "d", "c", "b"}},
		{SortByDate, OrderAsc, []string{"c", "b", "a", "d"}},
		{SortByDate, OrderDesc, []string{"d", "a", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"_"+string(tt.order), func(t *testing.T) {
			in := append([]model.Document(nil), docs...)
			SortDocuments(in, tt.field, tt.order)
			assert.Equal(t, tt.want, names(in))
		})
	}
}

func TestFilterDocuments(t *testing.T) {
	docs := []model.Document{
		{Name: "Resume.pdf", FileType: "pdf"},
		{Name: "notes.txt", FileType: "txt", Summary: "resume draft"},
		{Name: "budget.pdf", FileType: "pdf"},
	}

	assert.Equal(t, []string{"Resume.pdf", "notes.txt"}, names(FilterDocuments(docs, "RESUME", "")))
	assert.Equal(t, []string{"Resume.pdf"}, names(FilterDocuments(docs, "resume", "pdf")))
	assert.Len(t, FilterDocuments(docs, "", "all"), 3)
	assert.Empty(t, FilterDocuments(docs, "missing", ""))
}

func TestCatalogListSortsLocallyWithoutEcho(t *testing.T) {
	b := newFakeBackend(t)
	seedDocs(b)
	svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)

	page, err := svc.List(context.Background(), DocumentFilter{Sort: SortByName, Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.txt", "beta.pdf", "Gamma.pdf"}, names(page.Documents))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "pdf", page.Documents[1].FileType)

	page, err = svc.List(context.Background(), DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.txt", "Gamma.pdf", "beta.pdf"}, names(page.Documents))
}

func TestCatalogListKeepsServerOrderWhenEchoed(t *testing.T) {
	b := newFakeBackend(t)
	seedDocs(b)
	b.echoSort = true
	svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)

	page, err := svc.List(context.Background(), DocumentFilter{Sort: SortByName, Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"beta.pdf", "alpha.txt", "Gamma.pdf"}, names(page.Documents))
}

func TestCatalogListRejectsUnknownSort(t *testing.T) {
	b := newFakeBackend(t)
	svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)

	_, err := svc.List(context.Background(), DocumentFilter{Sort: "size"})
	assert.True(t, IsValidation(err))
	assert.Empty(t, b.callLog())
}

func TestCatalogUploadRejectsOversizedFileWithoutRequest(t *testing.T) {
	b := newFakeBackend(t)
	notes := &recordingNotifier{}
	svc := NewCatalogService(b.client(), CatalogConfig{}, notes, nil, nil)

	big := bytes.Repeat([]byte("x"), 15<<20)
	_, err := svc.Upload(context.Background(), UploadInput{FileName: "report.pdf", Content: big})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.True(t, IsValidation(err))
	assert.Zero(t, b.countCalls("POST /doc/embeddings"))
	assert.Equal(t, 1, notes.count(model.LevelError))
	assert.Empty(t, svc.Documents())
}

func TestCatalogValidateUpload(t *testing.T) {
	svc := NewCatalogService(nil, CatalogConfig{}, nil, nil, nil)

	assert.NoError(t, svc.ValidateUpload("notes.txt", 10))
	assert.NoError(t, svc.ValidateUpload("SCAN.PDF", 10<<20))
	assert.ErrorIs(t, svc.ValidateUpload("scan.pdf", 10<<20+1), ErrFileTooLarge)
	assert.ErrorIs(t, svc.ValidateUpload("resume.docx", 10), ErrFileType)
	assert.ErrorIs(t, svc.ValidateUpload("README", 10), ErrFileType)
}

func TestCatalogUploadAddsDocument(t *testing.T) {
	b := newFakeBackend(t)
	activity := &recordingActivity{}
	notes := &recordingNotifier{}
	svc := NewCatalogService(b.client(), CatalogConfig{}, notes, activity, nil)

	doc, err := svc.Upload(context.Background(), UploadInput{FileName: "notes.txt", Content: []byte("hello there, world")})
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "txt", doc.FileType)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, []string{"notes.txt"}, names(svc.Documents()))
	assert.Equal(t, 1, notes.count(model.LevelSuccess))

	events := activity.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.ActivityUpload, events[0].Kind)
	assert.Equal(t, model.ActivitySuccess, events[0].Status)
}

func TestCatalogUploadBatchContinuesAfterFailure(t *testing.T) {
	b := newFakeBackend(t)
	svc := NewCatalogService(b.client(), CatalogConfig{}, &recordingNotifier{}, nil, nil)

	items := svc.UploadBatch(context.Background(), []UploadInput{
		{FileName: "one.txt", Content: []byte("first")},
		{FileName: "two.exe", Content: []byte("binary")},
		{FileName: "reject-me.txt", Content: []byte("server says no")},
		{FileName: "four.txt", Content: []byte("last")},
	})

	require.Len(t, items, 4)
	assert.Equal(t, UploadSuccess, items[0].Status)
	assert.Equal(t, UploadFailed, items[1].Status)
	assert.Equal(t, UploadFailed, items[2].Status)
	assert.Contains(t, items[2].Error, "could not embed reject-me.txt")
	assert.Equal(t, UploadSuccess, items[3].Status)
	assert.NotEmpty(t, items[3].DocumentID)

	assert.Equal(t, 3, b.countCalls("POST /doc/embeddings"))
	assert.Equal(t, []string{"one.txt", "four.txt"}, names(svc.Documents()))
	assert.Len(t, svc.Uploads(), 4)

	svc.ClearFinishedUploads()
	assert.Empty(t, svc.Uploads())
}

func TestCatalogUploadBatchStopsOnCancel(t *testing.T) {
	b := newFakeBackend(t)
	svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := svc.UploadBatch(ctx, []UploadInput{{FileName: "one.txt", Content: []byte("x")}})

	require.Len(t, items, 1)
	assert.Equal(t, UploadFailed, items[0].Status)
	assert.Equal(t, ErrUploadCancelled.Error(), items[0].Error)
	assert.Zero(t, b.countCalls("POST /doc/embeddings"))
}

func TestCatalogDelete(t *testing.T) {
	t.Run("success evicts", func(t *testing.T) {
		b := newFakeBackend(t)
		seedDocs(b)
		activity := &recordingActivity{}
		svc := NewCatalogService(b.client(), CatalogConfig{}, nil, activity, nil)
		_, err := svc.List(context.Background(), DocumentFilter{})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), "1"))
		assert.NotContains(t, names(svc.Documents()), "beta.pdf")
		assert.Len(t, svc.Documents(), 2)
		require.Len(t, activity.all(), 1)
		assert.Equal(t, "beta.pdf", activity.all()[0].Subject)
	})

	t.Run("not found counts as deleted", func(t *testing.T) {
		b := newFakeBackend(t)
		seedDocs(b)
		svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)
		_, err := svc.List(context.Background(), DocumentFilter{})
		require.NoError(t, err)
		b.failOn("DELETE /doc/delete-asset/2", 404)

		require.NoError(t, svc.Delete(context.Background(), "2"))
		assert.Len(t, svc.Documents(), 2)
	})

	t.Run("failure keeps list", func(t *testing.T) {
		b := newFakeBackend(t)
		seedDocs(b)
		notes := &recordingNotifier{}
		svc := NewCatalogService(b.client(), CatalogConfig{}, notes, nil, nil)
		_, err := svc.List(context.Background(), DocumentFilter{})
		require.NoError(t, err)
		before := svc.Documents()
		b.failOn("DELETE /doc/delete-asset/3", 500)

		err = svc.Delete(context.Background(), "3")
		require.Error(t, err)
		assert.Equal(t, before, svc.Documents())
		assert.Equal(t, 1, notes.count(model.LevelError))
	})
}

func TestCatalogGet(t *testing.T) {
	b := newFakeBackend(t)
	seedDocs(b)
	svc := NewCatalogService(b.client(), CatalogConfig{}, nil, nil, nil)

	detail, err := svc.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "beta.pdf", detail.Name)
	require.Len(t, detail.ChunkPreviews, 1)
	assert.Equal(t, "first chunk", detail.ChunkPreviews[0].Content)

	_, err = svc.Get(context.Background(), "404")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFileType))
}
