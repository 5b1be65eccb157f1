package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"photopick/internal/application/upload"
	domain "photopick/internal/domain/upload"
	"photopick/internal/shared/errors"
	"photopick/internal/shared/logger"
	"photopick/internal/shared/utils"
)

// multipartOverhead is allowed on top of the file size for boundaries and form fields.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploads        uploadService
	maxUploadBytes int64
	logger         logger.Interface
}

func NewUploadHandler(uploads uploadService, maxUploadBytes int64, logger logger.Interface) *UploadHandler {
	return &UploadHandler{
		uploads:        uploads,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CreateUpload accepts a multipart form with a "file" part and an optional
// "metadata" field holding a JSON object.
func (h *UploadHandler) CreateUpload(c *gin.Context) {
	ownerID := c.Param("owner_id")

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			utils.ErrorResponseWithError(c, toAppError(domain.ErrTooLarge))
			return
		}
		h.logger.Warnw("missing upload file", "owner_id", ownerID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("A file part named \"file\" is required"))
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		utils.ErrorResponseWithError(c, toAppError(fmt.Errorf("%w: %d bytes", domain.ErrTooLarge, fh.Size)))
		return
	}

	var metadata map[string]any
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			utils.ErrorResponseWithError(c, toAppError(fmt.Errorf("%w: %v", domain.ErrInvalidMetadata, err)))
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Errorw("failed to open upload part", "owner_id", ownerID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("Unreadable upload"))
		return
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		h.logger.Errorw("failed to read upload part", "owner_id", ownerID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("Unreadable upload"))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" || len(contentType) > domain.MaxContentTypeLength {
		contentType = http.DetectContentType(body)
	}

	result, err := h.uploads.Create(c.Request.Context(), upload.CreateCommand{
		OwnerID:      ownerID,
		Body:         body,
		ContentType:  contentType,
		OriginalName: fh.Filename,
		Metadata:     metadata,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}
	if result.Rejected() {
		utils.ErrorResponseWithError(c, rejectionError(result.Rejection))
		return
	}

	utils.CreatedResponse(c, toUploadResponse(result.Upload), "Upload stored")
}

func (h *UploadHandler) ListUploads(c *gin.Context) {
	p := utils.ParsePagination(c)

	result, err := h.uploads.ListByOwner(c.Request.Context(), upload.ListQuery{
		OwnerID:  c.Param("owner_id"),
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.ListSuccessResponse(c, toUploadResponses(result.Items), result.Total, result.Page, result.PageSize)
}

func (h *UploadHandler) GetUpload(c *gin.Context) {
	u, err := h.uploads.Get(c.Request.Context(), c.Param("upload_id"))
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toUploadResponse(u))
}

// DeleteUpload is idempotent: deleting a missing upload answers 200 with
// deleted=false.
func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	uploadID := c.Param("upload_id")

	result, err := h.uploads.Delete(c.Request.Context(), uploadID)
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", &DeleteUploadResponse{
		UploadID: result.UploadID,
		Deleted:  result.Deleted,
	})
}
