package calendar

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
)

// OverrideFlag forces the status of a single date
type OverrideFlag int

const (
	OverrideWorkday OverrideFlag = 0
	OverrideHoliday OverrideFlag = 1
)

// Overrides is an immutable set of per-date overrides
type Overrides struct {
	dates map[civil.Date]OverrideFlag
}

// NewOverrides copies dates into a new Overrides value
func NewOverrides(dates map[civil.Date]OverrideFlag) (Overrides, error) {
	o := Overrides{dates: make(map[civil.Date]OverrideFlag, len(dates))}
	for d, flag := range dates {
		if !d.IsValid() {
			return Overrides{}, fmt.Errorf("invalid override date %v", d)
		}
		if flag != OverrideWorkday && flag != OverrideHoliday {
			return Overrides{}, fmt.Errorf("invalid override flag %d for %s (want 0 or 1)", flag, d)
		}
		o.dates[d] = flag
	}
	return o, nil
}

// Lookup returns the override for the calendar day of t
func (o Overrides) Lookup(t time.Time) (OverrideFlag, bool) {
	flag, ok := o.dates[civil.DateOf(t)]
	return flag, ok
}

// Len returns the number of overridden dates
func (o Overrides) Len() int {
	return len(o.dates)
}

// Merge returns a new Overrides with other's entries taking precedence
func (o Overrides) Merge(other Overrides) Overrides {
	out := Overrides{dates: make(map[civil.Date]OverrideFlag, len(o.dates)+len(other.dates))}
	for d, f := range o.dates {
		out.dates[d] = f
	}
	for d, f := range other.dates {
		out.dates[d] = f
	}
	return out
}

// LoadOverrides reads overrides from a text file.
// Format: YYYY-MM-DD workday|holiday [note]
// Example: 2025-12-31 workday office open
func LoadOverrides(filePath string, logger *zap.Logger) (Overrides, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to open overrides file: %w", err)
	}
	defer file.Close()

	dates := make(map[civil.Date]OverrideFlag)
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return Overrides{}, fmt.Errorf("%s:%d: expected \"YYYY-MM-DD workday|holiday\"", filePath, lineNo)
		}

		date, err := civil.ParseDate(parts[0])
		if err != nil {
			return Overrides{}, fmt.Errorf("%s:%d: %w", filePath, lineNo, err)
		}

		var flag OverrideFlag
		switch strings.ToLower(parts[1]) {
		case "workday", "0":
			flag = OverrideWorkday
		case "holiday", "1":
			flag = OverrideHoliday
		default:
			return Overrides{}, fmt.Errorf("%s:%d: unknown day type %q", filePath, lineNo, parts[1])
		}

		if prev, dup := dates[date]; dup && prev != flag {
			logger.Warn("Conflicting override, last one wins",
				zap.String("date", date.String()),
				zap.Int("line", lineNo))
		}
		dates[date] = flag
	}

	if err := scanner.Err(); err != nil {
		return Overrides{}, fmt.Errorf("error reading overrides file: %w", err)
	}

	logger.Info("Overrides file loaded",
		zap.String("file", filePath),
		zap.Int("dates", len(dates)))

	return NewOverrides(dates)
}
