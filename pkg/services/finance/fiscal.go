package finance

import (
	"fmt"
	"time"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const labelLayout = "2006-01"

// FiscalPeriod indexes the financial report family: Period 1 is the first month
// of fiscal Year.
type FiscalPeriod struct {
	Year   int
	Period int
}

// Label is the reportDate the financial endpoints expect, e.g. "2025-03".
func (p FiscalPeriod) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Period)
}

func (p FiscalPeriod) Next() FiscalPeriod {
	if p.Period == 12 {
		return FiscalPeriod{Year: p.Year + 1, Period: 1}
	}
	return FiscalPeriod{Year: p.Year, Period: p.Period + 1}
}

func (p FiscalPeriod) Prev() FiscalPeriod {
	if p.Period == 1 {
		return FiscalPeriod{Year: p.Year - 1, Period: 12}
	}
	return FiscalPeriod{Year: p.Year, Period: p.Period - 1}
}

// ParseFiscalLabel reads a "YYYY-PP" label back into a period.
func ParseFiscalLabel(label string) (FiscalPeriod, error) {
	// periods share the 01..12 range of calendar months
	t, err := time.Parse(labelLayout, label)
	if err != nil {
		return FiscalPeriod{}, fmt.Errorf("%w: fiscal period %q", domain.ErrInvalidArgument, label)
	}
	return FiscalPeriod{Year: t.Year(), Period: int(t.Month())}, nil
}

// FiscalCalendar translates calendar months to fiscal periods for a fiscal year that
// starts in StartMonth. Months from StartMonth onwards belong to the next fiscal year.
type FiscalCalendar struct {
	StartMonth time.Month
}

func NewFiscalCalendar(startMonth int) (FiscalCalendar, error) {
	if startMonth < 1 || startMonth > 12 {
		return FiscalCalendar{}, fmt.Errorf("%w: fiscal year start month %d", domain.ErrConfiguration, startMonth)
	}
	return FiscalCalendar{StartMonth: time.Month(startMonth)}, nil
}

func (c FiscalCalendar) Period(year int, month time.Month) FiscalPeriod {
	start := int(c.StartMonth)
	m := int(month)

	fiscalYear := year
	if start != 1 && m >= start {
		fiscalYear++
	}
	return FiscalPeriod{
		Year:   fiscalYear,
		Period: (m-start+12)%12 + 1,
	}
}

// Calendar is the inverse of Period.
func (c FiscalCalendar) Calendar(p FiscalPeriod) (int, time.Month) {
	start := int(c.StartMonth)
	m := (start-1+p.Period-1)%12 + 1

	year := p.Year
	if start != 1 && m >= start {
		year--
	}
	return year, time.Month(m)
}

// CalendarLabel renders the calendar month of p as "YYYY-MM".
func (c FiscalCalendar) CalendarLabel(p FiscalPeriod) string {
	year, month := c.Calendar(p)
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
