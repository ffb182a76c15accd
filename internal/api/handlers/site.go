package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AthlureSolutions/sitelure/internal/service"
	"github.com/gin-gonic/gin"
)

// SiteHandler exposes site records
type SiteHandler struct {
	svc *service.SiteService
}

// NewSiteHandler creates a SiteHandler
func NewSiteHandler(svc *service.SiteService) *SiteHandler {
	return &SiteHandler{svc: svc}
}

// CreateSite stores a pending site and queues its generation.
// Responds 202 with the site and the job that will build it.
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req service.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	res, err := h.svc.Create(c.Request.Context(), getUserID(c), req)
	if err != nil {
		handleServiceError(c, err, "Failed to create site")
		return
	}
	c.JSON(http.StatusAccepted, res)
}

// ListSites returns the caller's sites, newest first
func (h *SiteHandler) ListSites(c *gin.Context) {
	sites, err := h.svc.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to fetch sites")
		return
	}
	c.JSON(http.StatusOK, sites)
}

// GetSite returns one site, including its stage and deploy URL once live
func (h *SiteHandler) GetSite(c *gin.Context) {
	id, ok := parseID(c, "site")
	if !ok {
		return
	}
	site, err := h.svc.Get(c.Request.Context(), id, getUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to fetch site")
		return
	}
	c.JSON(http.StatusOK, site)
}

// ListSiteJobs returns the generation runs of a site
func (h *SiteHandler) ListSiteJobs(c *gin.Context) {
	id, ok := parseID(c, "site")
	if !ok {
		return
	}
	jobs, err := h.svc.Jobs(c.Request.Context(), id, getUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to fetch jobs")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// DeleteSite removes the site, its hosting destination and its workspace
func (h *SiteHandler) DeleteSite(c *gin.Context) {
	id, ok := parseID(c, "site")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, getUserID(c)); err != nil {
		handleServiceError(c, err, "Failed to delete site")
		return
	}
	c.Status(http.StatusNoContent)
}

func handleServiceError(c *gin.Context, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message, Fields: ve.Fields})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	default:
		slog.Error(fallback, "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}
