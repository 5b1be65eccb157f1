package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
		want           Pagination
	}{
		{"defaults", 0, 0, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"negative", -3, -1, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"capped", 2, 1000, Pagination{Page: 2, PageSize: MaxPageSize}},
		{"kept", 3, 10, Pagination{Page: 3, PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePagination(tt.page, tt.pageSize))
		})
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?page=2&page_size=abc", nil)

	p := ParsePagination(c)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, DefaultPageSize, p.Offset())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
}
