package calendar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Normalize parses a raw xmlcalendar.ru yearly document, validates it against
// expectedYear and stamps it with the acquisition time now (UTC).
func Normalize(raw []byte, expectedYear int, now time.Time) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, corruptData(expectedYear, "failed to parse calendar JSON: %w", err)
	}

	if err := normalizeDocument(&doc, expectedYear); err != nil {
		return nil, err
	}

	// Persisted with second precision, keep memory and disk identical
	doc.AcquiredAt = now.UTC().Truncate(time.Second)

	return &doc, nil
}

// normalizeDocument validates doc and (re)derives NonWorkingDays from the raw markers
func normalizeDocument(doc *Document, expectedYear int) error {
	if doc.Year != expectedYear {
		return corruptData(expectedYear, "document declares year %d", doc.Year)
	}
	if len(doc.Months) == 0 {
		return corruptData(expectedYear, "document has no months")
	}

	seen := make(map[int]bool, len(doc.Months))
	for i := range doc.Months {
		m := &doc.Months[i]
		if m.Month < 1 || m.Month > 12 {
			return corruptData(expectedYear, "invalid month number %d", m.Month)
		}
		if seen[m.Month] {
			return corruptData(expectedYear, "month %d listed twice", m.Month)
		}
		seen[m.Month] = true

		days, err := parseDayMarkers(m.Days)
		if err != nil {
			return corruptData(expectedYear, "month %d: %w", m.Month, err)
		}
		m.NonWorkingDays = days
	}

	return nil
}

// parseDayMarkers parses xmlcalendar.ru compact format
// Format: "1,2,3*,4+,8,9"
// * = shortened working day (excluded), + = transferred day off, others = weekends/holidays
func parseDayMarkers(days string) ([]int, error) {
	result := []int{}
	if strings.TrimSpace(days) == "" {
		return result, nil
	}

	for _, part := range strings.Split(days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.HasSuffix(part, "*") {
			continue
		}

		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, part)

		day, err := strconv.Atoi(digits)
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("invalid day marker %q", part)
		}

		result = append(result, day)
	}

	return result, nil
}
