package publication

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
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListPublications(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	pub, err := h.service.CreatePublication(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, pub)
}

func (h *Handler) Show(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	pub, err := h.service.GetPublication(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pub)
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

	pub, err := h.service.UpdatePublication(c.Request.Context(), id, form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pub)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeletePublication(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type SetAuthorsRequest struct {
	AuthorIDs []uint64 `json:"author_ids" binding:"required"`
}

func (h *Handler) SetAuthors(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req SetAuthorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	authors, err := h.service.SetAuthors(c.Request.Context(), id, req.AuthorIDs)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

type ImportDOIRequest struct {
	DOI string `json:"doi" binding:"required,max=255"`
}

func (h *Handler) ImportDOI(c *gin.Context) {
	var req ImportDOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	pub, err := h.service.ImportFromDOI(c.Request.Context(), req.DOI)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, pub)
}

func (h *Handler) PreviewDOI(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	preview, err := h.service.PreviewDOI(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

type UpdateFromDOIRequest struct {
	Sources Sources `json:"sources"`
}

func (h *Handler) UpdateFromDOI(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdateFromDOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	pub, err := h.service.UpdateFromDOI(c.Request.Context(), id, req.Sources)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pub)
}

func (h *Handler) AttachFile(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("file is required", err))
		return
	}
	file, err := header.Open()
	if err != nil {
		c.Error(errors.BadRequest("could not read upload", err))
		return
	}
	defer file.Close()

	result, err := h.service.AttachFile(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
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
	entry, err := h.service.BibLaTeX(c.Request.Context(), id, opts)
	if err != nil {
		c.Error(err)
		return
	}

	c.String(http.StatusOK, entry)
}
