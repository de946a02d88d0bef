package books

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFiltersDefaults(t *testing.T) {
	filters, pagination, err := ParseFilters(url.Values{})

	require.NoError(t, err)
	require.Equal(t, 0, pagination.Skip)
	require.Equal(t, DefaultLimit, pagination.Limit)
	require.Empty(t, filters.Author)
	require.Nil(t, filters.YearFrom)
	require.Nil(t, filters.YearTo)
}

func TestParseFiltersAllFields(t *testing.T) {
	values := url.Values{}
	values.Set("author", "  Толстой ")
	values.Set("year_from", "1800")
	values.Set("year_to", "1900")
	values.Set("skip", "20")
	values.Set("limit", "100")

	filters, pagination, err := ParseFilters(values)

	require.NoError(t, err)
	require.Equal(t, "Толстой", filters.Author)
	require.Equal(t, 1800, *filters.YearFrom)
	require.Equal(t, 1900, *filters.YearTo)
	require.Equal(t, 20, pagination.Skip)
	require.Equal(t, 100, pagination.Limit)
}

func TestParseFiltersRejectsMalformed(t *testing.T) {
	tests := []struct {
		key, value, field, message string
	}{
		{"year_from", "old", "year_from", "must be an integer"},
		{"year_to", "1.5", "year_to", "must be an integer"},
		{"skip", "-1", "skip", "must be greater than or equal to 0"},
		{"limit", "0", "limit", "must be greater than or equal to 1"},
		{"limit", "ten", "limit", "must be an integer"},
		{"year_from", "3000000000", "year_from", "is out of range"},
		{"year_to", "-3000000000", "year_to", "is out of range"},
		{"skip", "99999999999", "skip", "is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			values := url.Values{}
			values.Set(tt.key, tt.value)

			_, _, err := ParseFilters(values)

			var filterErr FilterError
			require.True(t, errors.As(err, &filterErr), "unexpected error type %T", err)
			require.Equal(t, tt.field, filterErr.Field)
			require.Equal(t, tt.message, filterErr.Message)
		})
	}
}

func TestParseFiltersClampsLimit(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "500")

	_, pagination, err := ParseFilters(values)

	require.NoError(t, err)
	require.Equal(t, MaxLimit, pagination.Limit)
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := ValidationError{Fields: map[string]string{"year": "is required", "author": "is required"}}

	require.Equal(t, "validation failed: author: is required; year: is required", err.Error())
}
