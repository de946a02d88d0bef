package books

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters reads author, year_from, year_to, skip and limit from a query
// string.
func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Skip: 0, Limit: DefaultLimit}

	filters.Author = strings.TrimSpace(values.Get("author"))

	yearFrom, err := parseOptionalInt(values, "year_from")
	if err != nil {
		return filters, pagination, err
	}
	filters.YearFrom = yearFrom

	yearTo, err := parseOptionalInt(values, "year_to")
	if err != nil {
		return filters, pagination, err
	}
	filters.YearTo = yearTo

	skip, err := parseOptionalInt(values, "skip")
	if err != nil {
		return filters, pagination, err
	}
	if skip != nil {
		if *skip < 0 {
			return filters, pagination, FilterError{Field: "skip", Message: "must be greater than or equal to 0"}
		}
		pagination.Skip = *skip
	}

	limit, err := parseOptionalInt(values, "limit")
	if err != nil {
		return filters, pagination, err
	}
	if limit != nil {
		if *limit < 1 {
			return filters, pagination, FilterError{Field: "limit", Message: "must be greater than or equal to 1"}
		}
		pagination.Limit = min(*limit, MaxLimit)
	}

	return filters, pagination, nil
}

// parseOptionalInt accepts values that fit the int4 columns and parameters
// the store compares them against.
func parseOptionalInt(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return nil, FilterError{Field: key, Message: "is out of range"}
	}
	if err != nil {
		return nil, FilterError{Field: key, Message: "must be an integer"}
	}
	value := int(parsed)
	return &value, nil
}
