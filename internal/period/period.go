// Package period models the year-month granularity the external sources
// page by.
package period

import (
	"fmt"
	"strconv"
	"time"
)

// Period is one contract month, the unit every source sweep iterates over.
type Period struct {
	Year  int
	Month time.Month
}

func New(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// FromTime truncates t to its month.
func FromTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Parse accepts the wire form YYYYMM.
func Parse(value string) (Period, error) {
	if len(value) != 6 {
		return Period{}, fmt.Errorf("invalid period %q: want YYYYMM", value)
	}
	year, err := strconv.Atoi(value[:4])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", value, err)
	}
	month, err := strconv.Atoi(value[4:])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", value, err)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period %q: month out of range", value)
	}
	if year < 1900 || year > 2999 {
		return Period{}, fmt.Errorf("invalid period %q: year out of range", value)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p Period) After(other Period) bool {
	return other.Before(p)
}

// Range returns every period from from through to, inclusive. An inverted
// range is empty.
func Range(from, to Period) []Period {
	if to.Before(from) {
		return nil
	}
	var out []Period
	for p := from; !to.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}
