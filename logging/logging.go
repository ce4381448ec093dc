package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"datasetprep/types"
)

const (
	levelInfo    = "INFO: "
	levelWarning = "WARNING: "
	levelError   = "ERROR: "
)

var (
	mu sync.Mutex
	// debugLogger is nil until SetupLogger succeeds
	debugLogger *log.Logger
	logFile     *os.File
	console     = log.New(os.Stderr, "", 0)
)

// SetupLogger opens logFilePath in append mode and starts writing debug
// output to it. Calling it again while a log is open does nothing.
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	debugLogger = log.New(f, "", log.LstdFlags)
	debugLogger.Printf("--- datasetprep debug log started at %s ---\n", time.Now().Format(time.RFC3339))
	return nil
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return
	}
	debugLogger.Printf("--- datasetprep debug log closed at %s ---\n", time.Now().Format(time.RFC3339))
	logFile.Close()
	logFile = nil
	debugLogger = nil
}

// SetConsoleOutput redirects operator-facing warnings and errors
func SetConsoleOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console.SetOutput(w)
}

// emit writes one message to the debug log and, when consolePrefix is set,
// to the console as well
func emit(consolePrefix, level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if consolePrefix != "" {
		console.Printf(consolePrefix+format, args...)
	}
	if debugLogger != nil {
		debugLogger.Printf(level+format, args...)
	}
}

// LogInfo records progress that only matters in debug mode
func LogInfo(format string, args ...interface{}) {
	emit("", levelInfo, format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	emit("", "", format, args...)
}

// LogError logs an error message to the console and the debug log
func LogError(format string, args ...interface{}) {
	emit("Error: ", levelError, format, args...)
}

// LogWarning logs a warning message to the console and the debug log
func LogWarning(format string, args ...interface{}) {
	emit("Warning: ", levelWarning, format, args...)
}

// LogImageProcessed records whether an entry was hashed or skipped
func LogImageProcessed(path string, success bool, reason string) {
	if success {
		DebugLog("HASHED: %s", path)
		return
	}
	DebugLog("SKIPPED: %s - Reason: %s", path, reason)
}

// LogRelocation records the outcome of a file move
func LogRelocation(r types.Relocation) {
	DebugLog("%s: [%s] %s -> %s", r.Status, r.Class, r.Source, r.Destination)
}
