package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/username/prodcalendar/internal/calendar"
	"github.com/username/prodcalendar/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	rootCmd := newRootCmd()

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "prodcal",
		Short:         "Production calendar lookup",
		Long:          "Answer whether a date is a working day using the xmlcalendar.ru production calendar with a local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.ExpandEnvVars()

			if cfg.Daemon.LogFile != "" {
				logger, err = initFileLogger(cfg.Daemon.LogFile, cfg.Daemon.LogLevel)
				if err != nil {
					initLogger(cfg.Daemon.LogLevel) // Fallback to console
				}
			} else {
				initLogger(cfg.Daemon.LogLevel) // Default console logger
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ., $HOME/.prodcalendar, /etc/prodcalendar)")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(monthCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(exportICSCmd())
	rootCmd.AddCommand(daemonCmd())

	return rootCmd
}

func initializeCalendar(cfg *config.Config) (*calendar.ProductionCalendar, error) {
	opts, err := cfg.Calendar.Options(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar options: %w", err)
	}

	fetcher := calendar.NewHTTPFetcher(cfg.Calendar.BaseURL, cfg.Calendar.GetHTTPTimeout(), logger)

	logger.Debug("Initializing production calendar",
		zap.Bool("cache", opts.EnableCache),
		zap.String("cache_dir", opts.CacheDir),
		zap.Duration("cache_ttl", opts.CacheTTL),
		zap.Int("preload_year", opts.PreloadYear),
		zap.Int("overrides", opts.Overrides.Len()))

	cal, err := calendar.New(opts, fetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calendar: %w", err)
	}
	return cal, nil
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if zapLevel, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,   // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
