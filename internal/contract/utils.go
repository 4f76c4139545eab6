package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/huangsam/devflow/schema"
)

// Log is the process-wide logger. Commands write results to stdout, so logs go to stderr.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor marks a fully trusted report.
	GoodColor      = color.New(color.FgCyan)              // GoodColor marks a report with one thin source.
	FairColor      = color.New(color.FgYellow)            // FairColor marks a report worth double-checking.
	PoorColor      = color.New(color.FgRed, color.Bold)   // PoorColor marks a report that should not be trusted.
)

// GetPlainLabel returns the plain text label of a quality rating.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(r schema.QualityRating) string {
	if r == "" {
		return string(schema.PoorRating)
	}
	return string(r)
}

// GetColorLabel returns a colored quality rating label for console output (table).
func GetColorLabel(r schema.QualityRating) string {
	text := GetPlainLabel(r)
	switch schema.QualityRating(text) {
	case schema.ExcellentRating:
		return ExcellentColor.Sprint(text)
	case schema.GoodRating:
		return GoodColor.Sprint(text)
	case schema.FairRating:
		return FairColor.Sprint(text)
	default:
		return PoorColor.Sprint(text)
	}
}

// FormatOptional renders an optional metric with the given precision, or "-" when absent.
func FormatOptional(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

// SelectOutputFile returns the file handle for output, os.Stdout when filePath is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Log.WithError(err).Fatal(msg)
}

// LogWarn logs a warning with the error attached.
func LogWarn(msg string, err error) {
	Log.WithError(err).Warn(msg)
}

func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	return homeFile(".devflow_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for report history.
func GetHistoryDBFilePath() string {
	return homeFile(".devflow_history.db")
}

// TruncateText shortens text to maxWidth runes with an ellipsis suffix.
// maxWidth must exceed 3 to leave room for the ellipsis and one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
