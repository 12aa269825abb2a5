package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/prodcalendar/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	DefaultCacheDir = ".cache/"
	DefaultCacheTTL = 60 * 24 * time.Hour
	DefaultCountry  = "RU"
)

// Options configures a ProductionCalendar
type Options struct {
	EnableCache bool
	CacheDir    string
	PreloadYear int // 0 disables preloading
	CacheTTL    time.Duration
	Country     string
	Overrides   Overrides
}

// DefaultOptions returns caching enabled in .cache/ for 60 days with the current year preloaded
func DefaultOptions() Options {
	return Options{
		EnableCache: true,
		CacheDir:    DefaultCacheDir,
		PreloadYear: time.Now().Year(),
		CacheTTL:    DefaultCacheTTL,
		Country:     DefaultCountry,
	}
}

// ProductionCalendar implements Calendar on top of the xmlcalendar.ru yearly documents
type ProductionCalendar struct {
	cache     *CacheManager
	overrides Overrides
	logger    *zap.Logger
}

// New creates a new ProductionCalendar. Preloading is advisory: a failure is
// logged and the calendar is returned anyway, the year is fetched again on first use.
func New(opts Options, fetcher Fetcher, logger *zap.Logger) (*ProductionCalendar, error) {
	if fetcher == nil {
		return nil, errors.New("calendar fetcher is required")
	}
	if opts.CacheTTL < 0 {
		return nil, fmt.Errorf("cache TTL must not be negative, got %s", opts.CacheTTL)
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir
	}
	if opts.Country == "" {
		opts.Country = DefaultCountry
	}

	var store *FileStore
	if opts.EnableCache {
		store = NewFileStore(opts.CacheDir, opts.Country)
	}

	pc := &ProductionCalendar{
		cache:     NewCacheManager(opts.EnableCache, opts.CacheTTL, store, fetcher, logger),
		overrides: opts.Overrides,
		logger:    logger,
	}

	if opts.EnableCache && opts.PreloadYear != 0 {
		if _, err := pc.cache.PrimeYear(opts.PreloadYear, false); err != nil {
			logger.Warn("Failed to preload calendar, will retry on first lookup",
				zap.Int("year", opts.PreloadYear),
				zap.Error(err))
		}
	}

	return pc, nil
}

// IsWorkday checks if the given date is a working day
func (pc *ProductionCalendar) IsWorkday(date time.Time) (bool, error) {
	if flag, ok := pc.overrides.Lookup(date); ok {
		return flag == OverrideWorkday, nil
	}

	doc, err := pc.cache.ResolveYear(date.Year())
	if err != nil {
		return false, err
	}

	month := doc.Month(int(date.Month()))
	if month == nil {
		pc.logger.Warn("Month missing in calendar data, using weekday rule",
			zap.Int("year", date.Year()),
			zap.Int("month", int(date.Month())))
		return !dateutil.IsWeekend(date), nil
	}

	return !month.IsNonWorking(date.Day()), nil
}

// IsHoliday checks if the given date is a weekend or a holiday
func (pc *ProductionCalendar) IsHoliday(date time.Time) (bool, error) {
	isWorkday, err := pc.IsWorkday(date)
	if err != nil {
		return false, err
	}
	return !isWorkday, nil
}

// GetMonthInfo returns calendar info for the entire month
func (pc *ProductionCalendar) GetMonthInfo(year int, month time.Month) (*MonthInfo, error) {
	daysInMonth := dateutil.DaysInMonth(year, month)

	monthInfo := &MonthInfo{
		Year:  year,
		Month: month,
		Days:  make([]DayInfo, 0, daysInMonth),
	}

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

		isWorkday, err := pc.IsWorkday(date)
		if err != nil {
			return nil, err
		}

		if isWorkday {
			monthInfo.WorkDays++
		} else {
			monthInfo.NonWorkingDays++
		}

		monthInfo.Days = append(monthInfo.Days, DayInfo{
			Date:      date,
			IsWorkday: isWorkday,
		})
	}

	return monthInfo, nil
}

// RefreshYear downloads the document for year regardless of cache state
func (pc *ProductionCalendar) RefreshYear(year int) (*Document, error) {
	return pc.cache.PrimeYear(year, true)
}
