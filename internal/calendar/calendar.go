package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

// AcquiredAtLayout is the layout of the downloaded_dt_utc field (always UTC)
const AcquiredAtLayout = "2006-01-02 15:04:05"

// Document is a normalized yearly production calendar
type Document struct {
	Year        int            `json:"year"`
	Months      []MonthEntry   `json:"months"`
	Statistic   *YearStatistic `json:"statistic,omitempty"`
	Transitions []Transition   `json:"transitions,omitempty"`

	// AcquiredAt is persisted as downloaded_dt_utc, see MarshalJSON
	AcquiredAt time.Time `json:"-"`
}

// MonthEntry holds the non-working days of a single month
type MonthEntry struct {
	Month          int    `json:"month"`
	Days           string `json:"days"`     // raw markers, e.g. "1,2,3*,9+"
	NonWorkingDays []int  `json:"days_int"` // parsed, shortened (*) days excluded
}

// YearStatistic is passed through from the remote document as-is
type YearStatistic struct {
	Workdays int     `json:"workdays"`
	Holidays int     `json:"holidays"`
	Hours40  float64 `json:"hours40"`
	Hours36  float64 `json:"hours36,omitempty"`
	Hours24  float64 `json:"hours24,omitempty"`
}

// Transition describes a weekend moved by government decree
type Transition struct {
	From string `json:"from"` // "MM.DD"
	To   string `json:"to"`   // "MM.DD"
}

type documentAlias Document

type documentJSON struct {
	*documentAlias
	DownloadedAt string `json:"downloaded_dt_utc,omitempty"`
}

// MarshalJSON adds the acquisition timestamp to the encoded document
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{documentAlias: (*documentAlias)(&d)}
	if !d.AcquiredAt.IsZero() {
		out.DownloadedAt = d.AcquiredAt.UTC().Format(AcquiredAtLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a document, leaving AcquiredAt zero when the
// timestamp is absent (remote documents never carry one)
func (d *Document) UnmarshalJSON(data []byte) error {
	in := documentJSON{documentAlias: (*documentAlias)(d)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.AcquiredAt = time.Time{}
	if in.DownloadedAt != "" {
		t, err := time.ParseInLocation(AcquiredAtLayout, in.DownloadedAt, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid downloaded_dt_utc %q: %w", in.DownloadedAt, err)
		}
		d.AcquiredAt = t
	}
	return nil
}

// Month returns the entry for the given month number, or nil
func (d *Document) Month(month int) *MonthEntry {
	for i := range d.Months {
		if d.Months[i].Month == month {
			return &d.Months[i]
		}
	}
	return nil
}

// IsNonWorking reports whether day is listed as a non-working day
func (m *MonthEntry) IsNonWorking(day int) bool {
	for _, d := range m.NonWorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// DayInfo represents the working status of a specific day
type DayInfo struct {
	Date      time.Time
	IsWorkday bool
}

// MonthInfo represents calendar information for a month
type MonthInfo struct {
	Year           int
	Month          time.Month
	WorkDays       int
	NonWorkingDays int
	Days           []DayInfo
}

// Calendar interface for checking working days
type Calendar interface {
	// IsWorkday checks if the given date is a working day
	IsWorkday(date time.Time) (bool, error)

	// IsHoliday checks if the given date is a weekend or a holiday
	IsHoliday(date time.Time) (bool, error)

	// GetMonthInfo returns calendar info for the entire month
	GetMonthInfo(year int, month time.Month) (*MonthInfo, error)
}
