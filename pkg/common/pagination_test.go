package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     int
	}{
		{"empty result has one page", 0, 20, 1},
		{"exact fit", 40, 20, 2},
		{"remainder adds a page", 41, 20, 3},
		{"single item", 1, 100, 1},
		{"invalid page size", 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateTotalPages(tt.total, tt.pageSize))
		})
	}
}

func TestPaginate_ClampsPastLastPage(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	last, lastPage, totalPages := Paginate(items, 3, 20)
	require.Equal(t, 3, totalPages)
	require.Equal(t, 3, lastPage)

	for _, requested := range []int{4, 9999, totalPages + 50} {
		got, page, _ := Paginate(items, requested, 20)
		assert.Equal(t, lastPage, page)
		assert.Equal(t, last, got)
	}
	assert.Equal(t, []int{40, 41, 42, 43, 44}, last)
}

func TestPaginate_EmptyInput(t *testing.T) {
	got, page, totalPages := Paginate([]string{}, 7, 10)

	assert.Empty(t, got)
	assert.Equal(t, 1, page)
	assert.Equal(t, 1, totalPages)
}

func TestPaginate_ReturnsCopy(t *testing.T) {
	items := []int{1, 2, 3}
	got, _, _ := Paginate(items, 1, 2)
	got[0] = 99

	assert.Equal(t, 1, items[0])
}

func TestExtractPaginationParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params, err := ExtractPaginationParams(httptest.NewRequest("GET", "/orders", nil))
		require.NoError(t, err)
		assert.Equal(t, DefaultPaginationParams(), params)
	})

	t.Run("explicit values are passed through unchecked", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/orders?page=4&page_size=500&q=%20Foo%20&status=pending", nil)
		params, err := ExtractPaginationParams(req)
		require.NoError(t, err)
		assert.Equal(t, 4, params.Page)
		assert.Equal(t, 500, params.PageSize)
		assert.Equal(t, " Foo ", params.Search)
		assert.Equal(t, "pending", params.Status)
	})

	t.Run("camel case page size", func(t *testing.T) {
		params, err := ExtractPaginationParams(httptest.NewRequest("GET", "/orders?pageSize=15", nil))
		require.NoError(t, err)
		assert.Equal(t, 15, params.PageSize)
	})

	t.Run("non numeric page", func(t *testing.T) {
		_, err := ExtractPaginationParams(httptest.NewRequest("GET", "/orders?page=abc", nil))
		assert.Error(t, err)
	})
}
