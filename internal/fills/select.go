package fills

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/ukydev/fuellog/internal/models"
)

// All is the sentinel criteria value meaning "no constraint".
const All = "all"

// SortField names the key fills are ordered by.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByPrice  SortField = "price_per_liter"
)

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ErrInvalidCriteria is returned by ParseCriteria for malformed query values.
var ErrInvalidCriteria = errors.New("invalid criteria")


// Criteria selects and orders fills. The zero value of each filter means no
// constraint. Month is zero-indexed (0 is January).
type Criteria struct {
	VehicleID string
	Year      *int
	Month     *int
	SortBy    SortField
	Order     Order
}

// DefaultCriteria returns criteria keeping every fill, most recent first.
func DefaultCriteria() Criteria {
	return Criteria{SortBy: SortByDate, Order: OrderDesc}
}

// Matches reports whether f passes every filter of c.
func (c Criteria) Matches(f models.Fill) bool {
	if c.VehicleID != "" && c.VehicleID != All && !sameID(f.VehicleID, c.VehicleID) {
		return false
	}
	if c.Year != nil && f.Date.Year() != *c.Year {
		return false
	}
	if c.Month != nil && int(f.Date.Month())-1 != *c.Month {
		return false
	}
	return true
}

// Select returns the fills matching c, ordered by c's sort key. Filtering
// happens before sorting and the sort is stable, so re-applying the same
// criteria to the result leaves it unchanged. The input slice is not
// modified.
func Select(fills []models.Fill, c Criteria) []models.Fill {
	out := make([]models.Fill, 0, len(fills))
	for _, f := range fills {
		if c.Matches(f) {
			out = append(out, f)
		}
	}

	key := sortKey(c.SortBy)
	desc := c.Order != OrderAsc
	slices.SortStableFunc(out, func(a, b models.Fill) int {
		if desc {
			return key(b, a)
		}
		return key(a, b)
	})
	return out
}

func sortKey(field SortField) func(a, b models.Fill) int {
	switch field {
	case SortByAmount:
		return func(a, b models.Fill) int { return cmp.Compare(a.AmountOrZero(), b.AmountOrZero()) }
	case SortByPrice:
		return func(a, b models.Fill) int { return cmp.Compare(a.PriceOrZero(), b.PriceOrZero()) }
	default:
		// a missing date is the zero time, which precedes every real date
		return func(a, b models.Fill) int { return a.Date.Compare(b.Date) }
	}
}

// sameID compares vehicle ids by their string form, falling back to a
// numeric comparison so "3" and "03" match.
func sameID(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	return errA == nil && errB == nil && x == y
}

// ParseCriteria reads criteria from query parameters: vehicle_id, year,
// month (0-11), sort_by and order. Empty values and "all" leave a filter
// unset.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := DefaultCriteria()

	if v := strings.TrimSpace(q.Get("vehicle_id")); v != "" && v != All {
		c.VehicleID = v
	}

	year, err := parseOptionalInt(q.Get("year"))
	if err != nil {
		return Criteria{}, fmt.Errorf("%w: year %q", ErrInvalidCriteria, q.Get("year"))
	}
	c.Year = year

	month, err := parseOptionalInt(q.Get("month"))
	if err != nil || (month != nil && (*month < 0 || *month > 11)) {
		return Criteria{}, fmt.Errorf("%w: month %q", ErrInvalidCriteria, q.Get("month"))
	}
	c.Month = month

	if v := q.Get("sort_by"); v != "" {
		switch SortField(v) {
		case SortByDate, SortByAmount, SortByPrice:
			c.SortBy = SortField(v)
		default:
			return Criteria{}, fmt.Errorf("%w: sort_by %q", ErrInvalidCriteria, v)
		}
	}

	if v := q.Get("order"); v != "" {
		switch Order(v) {
		case OrderAsc, OrderDesc:
			c.Order = Order(v)
		default:
			return Criteria{}, fmt.Errorf("%w: order %q", ErrInvalidCriteria, v)
		}
	}

	return c, nil
}

func parseOptionalInt(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == All {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
