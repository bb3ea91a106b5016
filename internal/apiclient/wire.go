package apiclient

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"ragdash/internal/model"
)

// wireID accepts identifiers sent either as JSON strings or numbers.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireSize accepts a byte count as a number, a numeric string, or a
// formatted string such as "1.5 MB".
type wireSize int64

func (s *wireSize) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*s = wireSize(f)
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = wireSize(parseFileSize(raw))
	return nil
}

func parseFileSize(raw string) int64 {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	mult := 1.0
	if len(fields) > 1 {
		switch strings.ToUpper(fields[1]) {
		case "KB":
			mult = 1 << 10
		case "MB":
			mult = 1 << 20
		case "GB":
			mult = 1 << 30
		}
	}
	return int64(math.Round(v * mult))
}

type documentDTO struct {
	ID          wireID    `json:"id"`
	FileName    string    `json:"fileName"`
	SourceType  string    `json:"sourceType"`
	Summary     string    `json:"summary"`
	Chunks      int       `json:"chunks"`
	TotalChunks int       `json:"totalChunks"`
	UploadDate  time.Time `json:"uploadDate"`
	FileType    string    `json:"fileType"`
	FileSize    wireSize  `json:"fileSize"`
}

func (d documentDTO) toModel() model.Document {
	chunks := d.Chunks
	if chunks == 0 {
		chunks = d.TotalChunks
	}
	source := model.SourceType(d.SourceType)
	if source != model.SourceText {
		source = model.SourceFile
	}
	fileType := strings.ToLower(d.FileType)
	if fileType == "" {
		fileType = fileExt(d.FileName)
	}
	return model.Document{
		ID:         string(d.ID),
		Name:       d.FileName,
		SourceType: source,
		FileType:   fileType,
		Chunks:     chunks,
		CreatedAt:  d.UploadDate,
		SizeBytes:  int64(d.FileSize),
		Summary:    d.Summary,
	}
}

type documentListDTO struct {
	Documents  []documentDTO `json:"documents"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	HasMore    bool          `json:"hasMore"`
	Sort       string        `json:"sort"`
	Order      string        `json:"order"`
}

type documentDetailDTO struct {
	documentDTO
	Content  string `json:"content"`
	Metadata struct {
		Author      string    `json:"author"`
		CreatedDate time.Time `json:"createdDate"`
		Pages       int       `json:"pages"`
		Keywords    []string  `json:"keywords"`
	} `json:"metadata"`
	RelatedDocuments []struct {
		ID        wireID  `json:"id"`
		FileName  string  `json:"fileName"`
		Relevance float64 `json:"relevance"`
	} `json:"relatedDocuments"`
	ChunkContent []struct {
		ID        wireID  `json:"id"`
		Content   string  `json:"content"`
		Relevance float64 `json:"relevance"`
	} `json:"chunkContent"`
}

func (d documentDetailDTO) toModel() model.DocumentDetail {
	out := model.DocumentDetail{
		Document: d.documentDTO.toModel(),
		Preview:  d.Content,
		Metadata: model.DocumentMetadata{
			Author:      d.Metadata.Author,
			CreatedDate: d.Metadata.CreatedDate,
			Pages:       d.Metadata.Pages,
			Keywords:    d.Metadata.Keywords,
		},
		Related:       make([]model.RelatedDocument, 0, len(d.RelatedDocuments)),
		ChunkPreviews: make([]model.ChunkPreview, 0, len(d.ChunkContent)),
	}
	for _, r := range d.RelatedDocuments {
		out.Related = append(out.Related, model.RelatedDocument{
			ID:        string(r.ID),
			Name:      r.FileName,
			Relevance: model.ClampRelevance(r.Relevance),
		})
	}
	for _, c := range d.ChunkContent {
		out.ChunkPreviews = append(out.ChunkPreviews, model.ChunkPreview{
			ID:        string(c.ID),
			Content:   c.Content,
			Relevance: model.ClampRelevance(c.Relevance),
		})
	}
	return out
}

type chatRoomDTO struct {
	ID        wireID    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UserID    wireID    `json:"user_id"`
	Contexts  []wireID  `json:"contexts"`
	Provider  string    `json:"provider"`
	IsActive  bool      `json:"is_active"`
}

func (r chatRoomDTO) toModel() model.ChatSession {
	contexts := make([]string, 0, len(r.Contexts))
	for _, c := range r.Contexts {
		contexts = append(contexts, string(c))
	}
	return model.ChatSession{
		ID:        string(r.ID),
		Name:      r.Name,
		UserID:    string(r.UserID),
		Contexts:  contexts,
		Provider:  model.Provider(r.Provider),
		Active:    r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

type createChatRoomBody struct {
	Name     string   `json:"name"`
	Contexts []string `json:"contexts"`
	Provider string   `json:"provider"`
	UserID   string   `json:"user_id,omitempty"`
}

// sourceDTO is a retrieval source on a query result or stored message. Its
// relevance is a percentage, unlike chunk and related-document scores.
type sourceDTO struct {
	VectorID  wireID  `json:"vector_id"`
	DocName   string  `json:"docName"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

func (s sourceDTO) toModel() model.Citation {
	return model.Citation{
		ID:           string(s.VectorID),
		DocumentName: s.DocName,
		Excerpt:      s.Content,
		Relevance:    model.ClampRelevance(s.Relevance / 100),
	}
}

func citations(in []sourceDTO) []model.Citation {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Citation, 0, len(in))
	for _, s := range in {
		out = append(out, s.toModel())
	}
	return out
}

type messageDTO struct {
	ID         wireID      `json:"id"`
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	ChatRoomID wireID      `json:"chat_room_id"`
	Sources    []sourceDTO `json:"sources"`
}

func (m messageDTO) toModel() model.ChatMessage {
	return model.ChatMessage{
		ID:        string(m.ID),
		SessionID: string(m.ChatRoomID),
		Role:      model.Role(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Sources:   citations(m.Sources),
		Status:    model.MessageSent,
	}
}

type queryBody struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	ChatRoomID  string   `json:"chat_room_id"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
}

type queryResultDTO struct {
	Results string      `json:"results"`
	Sources []sourceDTO `json:"sources"`
}

func fileExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
