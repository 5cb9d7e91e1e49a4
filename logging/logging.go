package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	debugLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
	isSetup     bool
)

// SetupLogger initializes the debug logger with the specified log file.
// The run id is stamped on every line so interleaved runs stay separable.
func SetupLogger(logFilePath string, id string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	setupLocked(logFile, id)
	return nil
}

// SetupWriter routes the debug logger to w. Used by tests and by callers that
// already own an output stream.
func SetupWriter(w io.Writer, id string) {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return
	}
	setupLocked(w, id)
}

func setupLocked(w io.Writer, id string) {
	prefix := ""
	if id != "" {
		prefix = "[" + shortID(id) + "] "
	}
	debugLogger = log.New(w, prefix, log.LstdFlags)
	debugLogger.Printf("--- imagededup run log started at %s (run %s) ---", time.Now().Format(time.RFC3339), id)
	isSetup = true
}

// CloseLogger closes the log file and resets the logger.
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("--- imagededup run log closed at %s ---", time.Now().Format(time.RFC3339))
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil
	isSetup = false
}

// LogInfo logs an information message. Without a configured logger it falls
// back to the standard logger.
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("INFO: "+format, args...)
	} else {
		log.Printf("INFO: "+format, args...)
	}
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("ERROR: "+format, args...)
	}
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("WARNING: "+format, args...)
	}
}

// LogImageProcessed logs the classification of one scanned file.
func LogImageProcessed(path string, class string, err error) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger == nil {
		return
	}
	if err == nil {
		debugLogger.Printf("PROCESSED: %s", path)
		return
	}
	debugLogger.Printf("SKIPPED (%s): %s - Error: %v", class, path, err)
}

// LogRemoval logs a survivor decision.
func LogRemoval(victim, survivor string, victimPixels, survivorPixels int64) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("REMOVED: %s (%d px), kept %s (%d px)", victim, victimPixels, survivor, survivorPixels)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
