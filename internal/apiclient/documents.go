package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"ragdash/internal/model"
)

type DocumentQuery struct {
	Search   string
	FileType string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

func (q DocumentQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.FileType != "" {
		v.Set("fileType", q.FileType)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// DocumentList is one page of the catalog. Sort and Order echo what the
// backend applied; they are empty when the backend did not sort.
type DocumentList struct {
	model.DocumentPage
	Sort  string
	Order string
}

func (c *Client) ListDocuments(ctx context.Context, q DocumentQuery) (*DocumentList, error) {
	const op = "list_documents"
	resp, err := c.Do(ctx, Request{Op: op, Method: http.MethodGet, Path: pathDocumentList, Query: q.values()})
	if err != nil {
		return nil, err
	}
	var dto documentListDTO
	if err := DecodeData(op, resp, &dto); err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(dto.Documents))
	for _, d := range dto.Documents {
		docs = append(docs, d.toModel())
	}
	return &DocumentList{
		DocumentPage: model.DocumentPage{
			Documents:  docs,
			Total:      dto.Total,
			Page:       dto.Page,
			TotalPages: dto.TotalPages,
			HasMore:    dto.HasMore,
		},
		Sort:  dto.Sort,
		Order: dto.Order,
	}, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*model.DocumentDetail, error) {
	const op = "get_document"
	resp, err := c.Do(ctx, Request{Op: op, Method: http.MethodGet, Path: documentPath(id)})
	if err != nil {
		return nil, err
	}
	var dto documentDetailDTO
	if err := DecodeData(op, resp, &dto); err != nil {
		return nil, err
	}
	detail := dto.toModel()
	return &detail, nil
}

// UploadDocument sends one file as multipart form data. fields are extra
// form values sent alongside the file.
func (c *Client) UploadDocument(ctx context.Context, fileName string, content []byte, fields map[string]string) (*model.Document, error) {
	const op = "upload_document"
	resp, err := c.Do(ctx, Request{
		Op:        op,
		Method:    http.MethodPost,
		Path:      pathDocumentUpload,
		Multipart: true,
		Fields:    fields,
		Files:     []File{{Field: uploadFileField, Name: fileName, Content: content}},
	})
	if err != nil {
		return nil, err
	}
	var dto documentDTO
	if err := DecodeData(op, resp, &dto); err != nil {
		return nil, err
	}
	doc := dto.toModel()
	if doc.Name == "" {
		doc.Name = fileName
	}
	if doc.FileType == "" {
		doc.FileType = fileExt(doc.Name)
	}
	if doc.SizeBytes == 0 {
		doc.SizeBytes = int64(len(content))
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Op: "delete_document", Method: http.MethodDelete, Path: documentDeletePath(id)})
	return err
}
