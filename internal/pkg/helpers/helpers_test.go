package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, 10, limit)

	offset, limit = CalculateOffsetLimit(0, 500)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(21, 2, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(21), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)

	beyond := NewPaginationInfo(0, 4, 10)
	assert.Equal(t, 0, beyond.TotalPages)
	assert.Equal(t, 4, beyond.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, 10},
		{"?page=3&size=25", 3, 25},
		{"?page=-1&size=1000", 1, 10},
		{"?page=abc&size=xyz", 1, 10},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/feed"+tt.query, nil)

		page, size := ParsePaginationParams(c, 10)
		assert.Equal(t, tt.wantPage, page, tt.query)
		assert.Equal(t, tt.wantSize, size, tt.query)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `a\_b`, EscapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, EscapeLike(`c:\dir`))
	assert.Equal(t, `%Vision%`, ContainsPattern("Vision"))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Minute, ParseDuration("1h30m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("soon", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("-5m", time.Second))
}
