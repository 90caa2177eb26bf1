package annotation

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"literature-manager/internal/errors"
	"literature-manager/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	publicationID, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	annotations, err := h.service.ListAnnotations(c.Request.Context(), publicationID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, annotations)
}

func (h *Handler) Create(c *gin.Context) {
	publicationID, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	req, err := decodeCreate(c.Request.Body)
	if err != nil {
		c.Error(err)
		return
	}

	annotation, err := h.service.CreateAnnotation(c.Request.Context(), publicationID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, annotation)
}

func (h *Handler) Update(c *gin.Context) {
	publicationID, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	id, err := utils.ParseIDParam(c, "annotationId")
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	annotation, err := h.service.UpdateAnnotation(c.Request.Context(), publicationID, id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, annotation)
}

func (h *Handler) Delete(c *gin.Context) {
	publicationID, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	id, err := utils.ParseIDParam(c, "annotationId")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteAnnotation(c.Request.Context(), publicationID, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// decodeCreate checks key presence on the raw object first, since a missing
// key and an explicit zero decode to the same struct.
func decodeCreate(body io.Reader) (CreateRequest, error) {
	var req CreateRequest

	raw, err := io.ReadAll(body)
	if err != nil {
		return req, errors.BadRequest("Invalid request body", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, errors.BadRequest("Invalid JSON", err)
	}

	var missing []string
	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return req, errors.BadRequest("missing fields: "+strings.Join(missing, ", "), nil)
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, errors.BadRequest("Invalid JSON", err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, errors.NewValidationError(err)
	}
	return req, nil
}
