// Package build provides the logging backend shared by every coordinator
// subsystem: a rotating log file plus stdout, wrapped per-subsystem with
// btclog.Logger instances the way the teacher's daemon package does.
package build

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// LogWriter is an io.Writer that tees everything to stdout and, once
// initialized, to the rotating log file pipe.
type LogWriter struct {
	RotatorPipe *io.PipeWriter
}

// Write implements io.Writer.
func (w *LogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	if w.RotatorPipe != nil {
		return w.RotatorPipe.Write(b)
	}
	return len(b), nil
}

var (
	logWriter = &LogWriter{}

	// backendLog is the logging backend every subsystem logger is spawned
	// from. It must not be used before InitLogRotator runs, or writes
	// race the nil RotatorPipe.
	backendLog = btclog.NewBackend(logWriter)

	logRotator *rotator.Rotator

	// subLoggers holds every logger NewSubLogger has handed out, so
	// SetLogLevels can reach them.
	subLoggers []btclog.Logger
)

// NewSubLogger returns a tagged logger backed by the shared backend, mirroring
// the lnd convention of one short (4-char) tag per subsystem.
func NewSubLogger(tag string) btclog.Logger {
	logger := backendLog.Logger(tag)
	subLoggers = append(subLoggers, logger)
	return logger
}

// InitLogRotator initializes the rotating log file. Must be called once
// during startup before any subsystem logger is used, matching the
// teacher's initLogRotator.
func InitLogRotator(logFile string, maxLogFileSizeKB int, maxLogFiles int) error {
	r, err := rotator.New(logFile, int64(maxLogFileSizeKB*1024), false, maxLogFiles)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go r.Run(pr)

	logWriter.RotatorPipe = pw
	logRotator = r

	return nil
}

// SetLogLevels sets the log level of every subsystem logger registered so
// far. Loggers created after this call keep the backend's default level
// until SetLogLevels is called again.
func SetLogLevels(level string) {
	lvl, _ := btclog.LevelFromString(level)
	for _, logger := range subLoggers {
		logger.SetLevel(lvl)
	}
}

// Flush flushes the underlying rotator, if initialized.
func Flush() {
	if logRotator != nil {
		logRotator.Close()
	}
}
