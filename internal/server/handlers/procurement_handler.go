package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/messmaestro/maestro/internal/domain/models"
	"github.com/messmaestro/maestro/internal/repository/mongodb"
	"github.com/messmaestro/maestro/internal/service/procurement"
)

const defaultListLimit = 20

// Publisher generates and distributes procurement lists.
type Publisher interface {
	Publish(ctx context.Context, unitIDs []string, startDate, endDate string) (models.ProcurementList, error)
}

// ListReader reads previously published lists.
type ListReader interface {
	GetProcurementList(ctx context.Context, id string) (*models.ProcurementList, error)
	ListProcurementLists(ctx context.Context, limit int64) ([]models.ProcurementList, error)
}

// ProcurementHandler exposes procurement list generation over HTTP.
type ProcurementHandler struct {
	generator procurement.Generator
	publisher Publisher
	lists     ListReader
	logger    *zap.Logger
}

// NewProcurementHandler constructs the HTTP handler adapter.
func NewProcurementHandler(generator procurement.Generator, publisher Publisher, lists ListReader, logger *zap.Logger) *ProcurementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcurementHandler{generator: generator, publisher: publisher, lists: lists, logger: logger}
}

type generateResponse struct {
	ItemsToProcure []models.ProcurementLine `json:"itemsToProcure"`
	Diagnostics    models.Diagnostics       `json:"diagnostics"`
}

// Generate computes a list without saving it.
func (h *ProcurementHandler) Generate(c *gin.Context) {
	var req models.ProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid procurement request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	list, err := h.generator.Generate(c.Request.Context(), req.UnitIDs, req.StartDate, req.EndDate)
	if err != nil {
		h.respondError(c, "failed generating procurement list", err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{ItemsToProcure: list.ItemsToProcure, Diagnostics: list.Diagnostics})
}

// Publish computes, saves and distributes a list.
func (h *ProcurementHandler) Publish(c *gin.Context) {
	var req models.ProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid procurement request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	list, err := h.publisher.Publish(c.Request.Context(), req.UnitIDs, req.StartDate, req.EndDate)
	if err != nil {
		h.respondError(c, "failed publishing procurement list", err)
		return
	}

	c.JSON(http.StatusCreated, list)
}

// List returns recently published lists.
func (h *ProcurementHandler) List(c *gin.Context) {
	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}

	lists, err := h.lists.ListProcurementLists(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "failed listing procurement lists", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

// Get returns one published list.
func (h *ProcurementHandler) Get(c *gin.Context) {
	list, err := h.lists.GetProcurementList(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "failed loading procurement list", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ProcurementHandler) respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, procurement.ErrNoUnits),
		errors.Is(err, procurement.ErrInvalidDate),
		errors.Is(err, procurement.ErrInvalidRange),
		errors.Is(err, procurement.ErrRangeTooLong):
		h.logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, mongodb.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "procurement list not found"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
