package validators

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

// DateLayout is the calendar date format accepted by list filters.
const DateLayout = "2006-01-02"

// ParsePage reads page_index/page_size leniently: garbage falls back to page 1.
func ParsePage(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.Parse(q.Get("page_index"), q.Get("page_size"))
}

// ParseQueryDate parses an optional YYYY-MM-DD value as midnight UTC.
func ParseQueryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s format, expected YYYY-MM-DD", key).
			WithDetails(map[string]any{"field": key})
	}
	value = value.UTC()
	return &value, nil
}

// ParseQueryUUID parses an optional uuid filter.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s", key).WithDetails(map[string]any{"field": key})
	}
	return &id, nil
}

// ParseQueryEnum validates an optional enum filter with the given parser.
func ParseQueryEnum[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseDayRange reads the start_date/end_date pair shared by every listing.
func ParseDayRange(r *http.Request) (dbtypes.DayRange, error) {
	from, err := ParseQueryDate(r, "start_date")
	if err != nil {
		return dbtypes.DayRange{}, err
	}
	to, err := ParseQueryDate(r, "end_date")
	if err != nil {
		return dbtypes.DayRange{}, err
	}
	return dbtypes.DayRange{From: from, To: to}, nil
}
