package project

import (
	"net/http"

	"literature-manager/internal/biblatex"
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
	projects, err := h.service.ListProjects(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (h *Handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *Handler) Show(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	detail, err := h.service.GetProject(c.Request.Context(), id)
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

	project, err := h.service.UpdateProject(c.Request.Context(), id, form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) BibLaTeX(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	opts := biblatex.Options{
		ShortFirstNames:   utils.QueryBool(c, "short_names"),
		ShortJournalNames: utils.QueryBool(c, "short_journal"),
	}
	out, err := h.service.Export(c.Request.Context(), id, opts)
	if err != nil {
		c.Error(err)
		return
	}

	c.String(http.StatusOK, out)
}
