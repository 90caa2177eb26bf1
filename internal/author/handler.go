package author

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
	authors, err := h.service.ListAuthors(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": authors})
}

func (h *Handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	author, err := h.service.CreateAuthor(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, author)
}

func (h *Handler) Show(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	detail, err := h.service.GetAuthor(c.Request.Context(), id)
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

	author, err := h.service.UpdateAuthor(c.Request.Context(), id, form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, author)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteAuthor(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) Duplicates(c *gin.Context) {
	groups, err := h.service.FindDuplicates(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) Merge(c *gin.Context) {
	var plan MergePlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	author, err := h.service.MergeAuthors(c.Request.Context(), plan)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, author)
}
