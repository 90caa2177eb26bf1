package utils

import (
	"strconv"

	"literature-manager/internal/errors"

	"github.com/gin-gonic/gin"
)

func GetPaginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	return page, pageSize
}

// PageMeta describes one page of a list response.
type PageMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

func NewPageMeta(total int64, page, pageSize int) PageMeta {
	return PageMeta{
		Total:       total,
		CurrentPage: page,
		PerPage:     pageSize,
		TotalPage:   int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// Offset is the number of rows to skip for page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// ParseIDParam reads a positive integer path parameter.
func ParseIDParam(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

// QueryBool reads a boolean query flag; "1", "true" and "yes" are true.
func QueryBool(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
