package utils

import (
	"strconv" // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination reads page and page_size from the query string.
// Invalid values fall back to the defaults.
func Pagination(c *gin.Context) (page, pageSize, offset int) {
	page = 1
	pageSize = DefaultPageSize
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= MaxPageSize {
			pageSize = v
		}
	}
	return page, pageSize, (page - 1) * pageSize
}

// TotalPages returns the number of pages needed for total rows
func TotalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
