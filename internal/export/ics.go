package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const (
	// ProductID identifies generated feeds
	ProductID = "-//prodcalendar//Production Calendar//EN"
	// EventSummary is the summary of every exported day
	EventSummary = "Non-working day"
)

// HolidayChecker answers whether a date is a non-working day
type HolidayChecker interface {
	IsHoliday(date time.Time) (bool, error)
}

// WriteICS writes every non-working day of year as an all-day event.
// UIDs are stable across runs so subscribed calendars update in place.
func WriteICS(w io.Writer, cal HolidayChecker, year int, country string) error {
	feed, err := BuildCalendar(cal, year, country, time.Now())
	if err != nil {
		return err
	}
	return feed.SerializeTo(w)
}

// BuildCalendar builds the feed for year, stamping events with now
func BuildCalendar(cal HolidayChecker, year int, country string, now time.Time) (*ics.Calendar, error) {
	country = strings.ToUpper(country)

	feed := ics.NewCalendar()
	feed.SetMethod(ics.MethodPublish)
	feed.SetProductId(ProductID)
	feed.SetCalscale("GREGORIAN")
	feed.SetXWRCalName(fmt.Sprintf("Production calendar %s %d", country, year))
	feed.SetXPublishedTTL("P1D")

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		holiday, err := cal.IsHoliday(day)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", day.Format("2006-01-02"), err)
		}
		if !holiday {
			continue
		}

		event := feed.AddEvent(fmt.Sprintf("%s-%s@prodcalendar", day.Format("20060102"), country))
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(EventSummary)
		event.SetTimeTransparency(ics.TransparencyTransparent)
	}

	return feed, nil
}
