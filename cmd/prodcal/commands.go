package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/prodcalendar/internal/calendar"
	"github.com/username/prodcalendar/internal/daemon"
	"github.com/username/prodcalendar/internal/export"
	"github.com/username/prodcalendar/pkg/dateutil"
	"go.uber.org/zap"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [DATE...]",
		Short: "Print whether each date is a workday or a holiday (default: today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dates := make([]time.Time, 0, len(args))
			for _, arg := range args {
				date, err := dateutil.ParseDate(arg)
				if err != nil {
					return err
				}
				dates = append(dates, date)
			}
			if len(dates) == 0 {
				dates = append(dates, dateutil.Today())
			}

			cal, err := initializeCalendar(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, date := range dates {
				workday, err := cal.IsWorkday(date)
				if err != nil {
					return fmt.Errorf("failed to check %s: %w", dateutil.FormatDate(date), err)
				}
				fmt.Fprintf(out, "%s %s\n", dateutil.FormatDate(date), dayLabel(workday))
			}
			return nil
		},
	}
}

func monthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month YYYY-MM",
		Short: "Print the working days of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := dateutil.ParseMonth(args[0])
			if err != nil {
				return err
			}

			cal, err := initializeCalendar(cfg)
			if err != nil {
				return err
			}

			info, err := cal.GetMonthInfo(year, month)
			if err != nil {
				return err
			}

			printMonth(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func printMonth(out io.Writer, info *calendar.MonthInfo) {
	fmt.Fprintf(out, "📅 %s %d\n", info.Month, info.Year)
	fmt.Fprintln(out, "═══════════════════════════════")
	for _, day := range info.Days {
		fmt.Fprintf(out, "  %s %s  %s\n",
			dateutil.FormatDate(day.Date),
			day.Date.Weekday().String()[:3],
			dayLabel(day.IsWorkday))
	}
	fmt.Fprintln(out, "═══════════════════════════════")
	fmt.Fprintf(out, "  Working days:     %d\n", info.WorkDays)
	fmt.Fprintf(out, "  Non-working days: %d\n", info.NonWorkingDays)
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [YEAR...]",
		Short: "Force re-download of the calendar (default: current year)",
		RunE: func(cmd *cobra.Command, args []string) error {
			years, err := parseYears(args)
			if err != nil {
				return err
			}

			cal, err := initializeCalendar(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, year := range years {
				doc, err := cal.RefreshYear(year)
				if err != nil {
					fmt.Fprintf(out, "❌ %d: %v\n", year, err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "✅ %d: %d months, downloaded %s UTC\n",
					year, len(doc.Months), doc.AcquiredAt.Format(calendar.AcquiredAtLayout))
			}
			return errors.Join(errs...)
		},
	}
}

func exportICSCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export-ics YEAR",
		Short: "Export the non-working days of a year as an iCalendar feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			years, err := parseYears(args)
			if err != nil {
				return err
			}

			cal, err := initializeCalendar(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := export.WriteICS(w, cal, years[0], cfg.Calendar.Country); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			if outPath != "" {
				logger.Info("Calendar exported", zap.String("file", outPath), zap.Int("year", years[0]))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep the calendar cache refreshed on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := initializeCalendar(cfg)
			if err != nil {
				return err
			}

			d, err := daemon.NewDaemon(cal, cfg.Daemon.Schedule, cfg.Daemon.RefreshNextYear, logger)
			if err != nil {
				return err
			}
			return d.Start()
		},
	}
}

func parseYears(args []string) ([]int, error) {
	if len(args) == 0 {
		return []int{time.Now().Year()}, nil
	}
	years := make([]int, 0, len(args))
	for _, arg := range args {
		year, err := strconv.Atoi(arg)
		if err != nil || year < 1 {
			return nil, fmt.Errorf("invalid year '%s'", arg)
		}
		years = append(years, year)
	}
	return years, nil
}

func dayLabel(workday bool) string {
	if workday {
		return "workday"
	}
	return "holiday"
}
