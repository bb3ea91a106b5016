package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type SourceType string

const (
	SourceFile SourceType = "file"
	SourceText SourceType = "text"
)

type Document struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SourceType SourceType `json:"source_type"`
	FileType   string     `json:"file_type"`
	Chunks     int        `json:"chunks"`
	CreatedAt  time.Time  `json:"created_at"`
	SizeBytes  int64      `json:"size_bytes,omitempty"`
	Summary    string     `json:"summary,omitempty"`
}

// UploadedOn reports whether the document was created on the same calendar day as t.
func (d Document) UploadedOn(t time.Time) bool {
	y1, m1, d1 := d.CreatedAt.In(t.Location()).Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type DocumentMetadata struct {
	Author      string    `json:"author,omitempty"`
	CreatedDate time.Time `json:"created_date,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
}

type ChunkPreview struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

type RelatedDocument struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Relevance float64 `json:"relevance"`
}

// DocumentDetail is the full view of one document, including chunk previews
// used by the chunk visualizer.
type DocumentDetail struct {
	Document
	Preview       string            `json:"preview,omitempty"`
	Metadata      DocumentMetadata  `json:"metadata"`
	Related       []RelatedDocument `json:"related_documents"`
	ChunkPreviews []ChunkPreview    `json:"chunk_content"`
}

// SearchChunks returns chunk previews whose content contains q, ignoring case.
// An empty query returns every chunk.
func (d DocumentDetail) SearchChunks(q string) []ChunkPreview {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return d.ChunkPreviews
	}
	out := make([]ChunkPreview, 0, len(d.ChunkPreviews))
	for _, c := range d.ChunkPreviews {
		if strings.Contains(strings.ToLower(c.Content), q) {
			out = append(out, c)
		}
	}
	return out
}

type DocumentPage struct {
	Documents  []Document `json:"documents"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	HasMore    bool       `json:"has_more"`
}

// FormatFileSize renders a byte count with binary units, one decimal place.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	const k = 1024.0
	sizes := []string{"B", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	s := fmt.Sprintf("%.1f", v)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + sizes[i]
}
