package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragdash/internal/app"
	"ragdash/internal/transport/http/response"
)

type DocumentHandler struct {
	catalog  *app.CatalogService
	maxBytes int64
}

func NewDocumentHandler(catalog *app.CatalogService, maxBytes int64) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = app.DefaultMaxUploadBytes
	}
	return &DocumentHandler{catalog: catalog, maxBytes: maxBytes}
}

type listDocumentsQuery struct {
	Search   string `form:"search"`
	FileType string `form:"file_type"`
	Sort     string `form:"sort"`
	Order    string `form:"order"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (h *DocumentHandler) List(c *gin.Context) {
	var q listDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid query parameters")
		return
	}

	page, err := h.catalog.List(c.Request.Context(), app.DocumentFilter{
		Search:   q.Search,
		FileType: q.FileType,
		Sort:     app.SortField(q.Sort),
		Order:    app.SortOrder(q.Order),
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, page)
}

// Get returns the document detail. chunk_query narrows the chunk previews
// to those containing the text.
func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if q := c.Query("chunk_query"); q != "" {
		detail.ChunkPreviews = detail.SearchChunks(q)
	}
	response.OK(c, detail)
}

// Upload accepts one or more "file" parts. A single file answers with the
// created document; several files are uploaded in order and the response
// lists the outcome of each.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "expected a multipart form")
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file provided")
		return
	}

	inputs := make([]app.UploadInput, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
			return
		}
		// Reading one byte past the limit is enough for validation to
		// reject the file as too large.
		content, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		_ = f.Close()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
			return
		}
		inputs = append(inputs, app.UploadInput{FileName: fh.Filename, Content: content})
	}

	if len(inputs) == 1 {
		doc, err := h.catalog.Upload(c.Request.Context(), inputs[0])
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, doc)
		return
	}
	response.OK(c, gin.H{"uploads": h.catalog.UploadBatch(c.Request.Context(), inputs)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

func (h *DocumentHandler) Uploads(c *gin.Context) {
	if done, _ := strconv.ParseBool(c.Query("clear_finished")); done {
		h.catalog.ClearFinishedUploads()
	}
	response.OK(c, h.catalog.Uploads())
}
