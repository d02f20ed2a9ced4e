package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "movemut"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	mutantsFlagName     = "mutants"
	outputFlagName      = "output"
	parallelFlagName    = "parallel"
	budgetFlagName      = "budget"
	filterFlagName      = "filter"
	coverageFlagName    = "coverage"
	dumpStateFlagName   = "dump-state"
	ignoreWarnFlagName  = "ignore-compile-warnings"
	devFlagName         = "dev"
	skipFetchFlagName   = "skip-fetch-latest-deps"
	addressFlagName     = "address"
	verifyFirstFlagName = "verify-first"
	toolchainFlagName   = "toolchain"
	verboseFlagName     = "verbose"

	outputConfigKey      = "output"
	parallelConfigKey    = "run.parallel"
	budgetConfigKey      = "run.budget"
	verifyFirstConfigKey = "run.verify_first"
	toolchainConfigKey   = "toolchain.binary"
	depsCacheConfigKey   = "deps.cache_dir"

	defaultOutput      = ".movemut-results"
	defaultRunParallel = 1
	defaultBudget      = 1_000_000
	defaultVerifyFirst = true
	defaultToolchain   = "move"

	envPrefix = "MOVEMUT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".movemut.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputConfigKey, defaultOutput)
	viper.SetDefault(parallelConfigKey, defaultRunParallel)
	viper.SetDefault(budgetConfigKey, defaultBudget)
	viper.SetDefault(verifyFirstConfigKey, defaultVerifyFirst)
	viper.SetDefault(toolchainConfigKey, defaultToolchain)
	viper.SetDefault(depsCacheConfigKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(verbose bool) {
	logPath := viper.GetString(logFilenameKey)
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
