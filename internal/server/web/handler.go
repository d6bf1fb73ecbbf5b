package web

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/swapboard/internal/common"
	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/dmitrijs2005/swapboard/internal/server/models"
	"github.com/gin-gonic/gin"
)

// PayloadTooLargeMessage is the fixed body of every 413 response.
const PayloadTooLargeMessage = "File is too large (max 2MB)"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to temp files. The body itself is capped separately.
const multipartMemory = 8 << 20

// ListingService is what the handlers need from services.ListingService.
type ListingService interface {
	List(ctx context.Context, wantedSize string) ([]*models.Listing, error)
	Create(ctx context.Context, fields models.ListingFields, file *multipart.FileHeader) (int64, error)
	Complete(ctx context.Context, id int64) error
	ImageURL(name string) string
}

type Handler struct {
	svc    ListingService
	logger logging.Logger
}

func NewHandler(svc ListingService, logger logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("module", "web")}
}

// GET /?search_size=...
func (h *Handler) Index(c *gin.Context) {
	size := c.Query("search_size")

	posts, err := h.svc.List(c.Request.Context(), size)
	if err != nil {
		h.internalError(c, "list listings", err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts":       posts,
		"search_size": size,
	})
}

// POST /post (multipart/form-data). Anything short of an oversized body ends
// in a redirect: an unparsable form yields a listing with whatever fields
// were read and no image.
func (h *Handler) Create(c *gin.Context) {
	err := c.Request.ParseMultipartForm(multipartMemory)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
	case errors.As(err, &maxErr):
		c.String(http.StatusRequestEntityTooLarge, PayloadTooLargeMessage)
		return
	default:
		h.logger.Warn(c.Request.Context(), "malformed form", "error", err, "request_id", c.GetString(requestIDKey))
	}

	// PostForm is filled by ParseMultipartForm even when it fails, so the
	// body is not parsed a second time.
	form := c.Request.PostForm
	fields := models.ListingFields{
		Category:    form.Get("category"),
		Brand:       form.Get("brand"),
		CurrentSide: form.Get("current_side"),
		CurrentSize: form.Get("current_size"),
		WantedSide:  form.Get("wanted_side"),
		WantedSize:  form.Get("wanted_size"),
		Condition:   form.Get("condition"),
		Description: form.Get("description"),
	}

	if _, err := h.svc.Create(c.Request.Context(), fields, formFile(c.Request, "image")); err != nil {
		h.internalError(c, "create listing", err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// GET /complete/:id
func (h *Handler) Complete(c *gin.Context) {
	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	if err := h.svc.Complete(c.Request.Context(), id); err != nil {
		h.internalError(c, "complete listing", err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(c.Request.Context(), op+" failed", "error", err, "request_id", c.GetString(requestIDKey))
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	fhs := r.MultipartForm.File[field]
	if len(fhs) == 0 {
		return nil
	}
	return fhs[0]
}
