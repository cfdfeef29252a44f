package coverletters

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/middleware"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches cover letter routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cover-letters/generate", h.generate)
	rg.POST("/cover-letters", h.save)
	rg.GET("/cover-letters", h.list)
	rg.GET("/cover-letters/:id", h.get)
	rg.DELETE("/cover-letters/:id", h.delete)
}

func (h *Handler) generate(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}

	letter, draftDigest, err := h.Svc.Generate(c.Request.Context(), ownerID, ml.CoverLetterRequest{
		ResumeText:     req.ResumeText,
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Tone:           req.Tone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond.OK(c, gin.H{"letter": letter, "draftDigest": draftDigest})
}

func (h *Handler) save(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}

	record, err := h.Svc.Save(c.Request.Context(), ownerID, CoverLetter{
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Tone:           req.Tone,
		Letter:         req.Letter,
	}, req.DraftDigest)
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

	respond.OK(c, gin.H{"coverLetters": toResponseList(records)})
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

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "cover letter not found", nil)
	case errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusForbidden, ErrorCodeAccessDenied, "access denied", nil)
	case errors.Is(err, ErrGeneration):
		respond.Error(c, http.StatusBadGateway, ErrorCodeGeneration, "cover letter generation failed, please try again later", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "unexpected server error", nil)
	}
}
