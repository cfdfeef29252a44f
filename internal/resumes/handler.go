package resumes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/middleware"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.upload)
	rg.POST("/resumes/with-analysis", h.saveWithAnalysis)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.DELETE("/resumes/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	fileBytes, filename, mimeType, ok := readUploadedFile(c)
	if !ok {
		return
	}

	record, err := h.Svc.Upload(
		c.Request.Context(),
		ownerID,
		fileBytes,
		filename,
		mimeType,
		strings.TrimSpace(c.PostForm("resumeName")),
		strings.TrimSpace(c.PostForm("jobDescription")),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(record))
}

func (h *Handler) saveWithAnalysis(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	fileBytes, filename, mimeType, ok := readUploadedFile(c)
	if !ok {
		return
	}

	analysisJSON := strings.TrimSpace(c.PostForm("analysis"))
	if analysisJSON == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "analysis is required", nil)
		return
	}

	record, err := h.Svc.SaveWithAnalysis(
		c.Request.Context(),
		ownerID,
		fileBytes,
		filename,
		mimeType,
		strings.TrimSpace(c.PostForm("resumeName")),
		[]byte(analysisJSON),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(record))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	records, err := h.Svc.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond.OK(c, gin.H{"resumes": toResponseList(records)})
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	record, err := h.Svc.Get(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond.OK(c, toResponse(record))
}

func (h *Handler) delete(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		respondServiceError(c, err)
		return
	}

	respond.OK(c, gin.H{"deleted": true})
}

func readUploadedFile(c *gin.Context) (fileBytes []byte, filename, mimeType string, ok bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return nil, "", "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return nil, "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return nil, "", "", false
	}

	return data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "resume not found", nil)
	case errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusForbidden, ErrorCodeAccessDenied, "access denied", nil)
	case errors.Is(err, ErrAnalysisService):
		respond.Error(c, http.StatusBadGateway, ErrorCodeAnalysis, "resume analysis service failed, please try again later", nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusBadGateway, ErrorCodeStorage, "file storage failed, please try again later", nil)
	case errors.Is(err, ErrPersistence):
		respond.Error(c, http.StatusInternalServerError, ErrorCodePersistence, "failed to save resume", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "unexpected server error", nil)
	}
}
