package journal

import (
	"net/http"

	"literature-manager/internal/errors"
	"literature-manager/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	journals, err := h.service.ListJournals(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": journals})
}

func (h *Handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	journal, err := h.service.CreateJournal(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, journal)
}

func (h *Handler) Show(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	detail, err := h.service.GetJournal(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	journal, err := h.service.UpdateJournal(c.Request.Context(), id, form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, journal)
}
