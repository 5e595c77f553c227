package logger

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// logEntry is a log record on its way to the backend's writers
type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger. All messages are tagged with the
// subsystem's tag and filtered by the subsystem's level.
type Logger struct {
	level     Level
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

// Level returns the current logging level
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.level)))
}

// Backend returns the log backend
func (l *Logger) Backend() *Backend {
	return l.b
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.level), uint32(level))
}

func (l *Logger) write(level Level, format *string, args ...interface{}) {
	if l.Level() > level {
		return
	}

	t := time.Now()

	var message string
	if format == nil {
		message = fmt.Sprint(args...)
	} else {
		message = fmt.Sprintf(*format, args...)
	}

	var file string
	var line int
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		var ok bool
		_, file, line, ok = runtime.Caller(calldepth)
		if !ok {
			file = "???"
			line = 0
		} else if l.b.flag&LogFlagShortFile != 0 {
			for i := len(file) - 1; i > 0; i-- {
				if os.IsPathSeparator(file[i]) {
					file = file[i+1:]
					break
				}
			}
		}
	}

	buf := make([]byte, 0, normalLogSize)
	buf = append(buf, t.Format("2006-01-02 15:04:05.000")...)
	buf = append(buf, " ["...)
	buf = append(buf, level.String()...)
	buf = append(buf, "] "...)
	buf = append(buf, l.tag...)
	buf = append(buf, ": "...)
	if file != "" {
		buf = append(buf, fmt.Sprintf("%s:%d ", file, line)...)
	}
	buf = append(buf, message...)
	buf = append(buf, '\n')

	if !l.b.IsRunning() {
		// The backend isn't consuming entries, so write directly to
		// stderr rather than blocking forever.
		_, _ = os.Stderr.Write(buf)
		return
	}
	l.writeChan <- logEntry{log: buf, level: level}
}

// calldepth is the call depth of the callsite function relative to the
// caller of the subsystem logger.
const calldepth = 3

// Tracef formats message according to format specifier and writes to log
// with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, &format, args...)
}

// Debugf formats message according to format specifier and writes to log
// with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, &format, args...)
}

// Infof formats message according to format specifier and writes to log
// with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, &format, args...)
}

// Warnf formats message according to format specifier and writes to log
// with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, &format, args...)
}

// Errorf formats message according to format specifier and writes to log
// with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, &format, args...)
}

// Criticalf formats message according to format specifier and writes to log
// with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, &format, args...)
}

// Trace formats message using the default formats for its operands and
// writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.write(LevelTrace, nil, args...)
}

// Debug formats message using the default formats for its operands and
// writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.write(LevelDebug, nil, args...)
}

// Info formats message using the default formats for its operands and
// writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.write(LevelInfo, nil, args...)
}

// Warn formats message using the default formats for its operands and
// writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.write(LevelWarn, nil, args...)
}

// Error formats message using the default formats for its operands and
// writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.write(LevelError, nil, args...)
}

// Critical formats message using the default formats for its operands and
// writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.write(LevelCritical, nil, args...)
}

// backendLog is the logging backend used to create all subsystem loggers.
var backendLog = NewBackend()

var (
	subsystemsMutex sync.Mutex
	subsystems      = make(map[string]*Logger)
)

// RegisterSubSystem registers a new subsystem logger under the given tag,
// or returns the existing one if the tag was already registered.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()

	logger, ok := subsystems[subsystem]
	if !ok {
		logger = backendLog.Logger(subsystem)
		subsystems[subsystem] = logger
	}
	return logger
}

// SetLogLevels sets the logging level for all of the registered subsystems.
func SetLogLevels(level Level) {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()

	for _, logger := range subsystems {
		logger.SetLevel(level)
	}
}

// SetLogLevel sets the logging level of a single registered subsystem.
func SetLogLevel(subsystem string, level Level) bool {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()

	logger, ok := subsystems[subsystem]
	if !ok {
		return false
	}
	logger.SetLevel(level)
	return true
}

// InitLog attaches log file and error log file to the backend log and
// launches it.
func InitLog(logFile, errLogFile string) {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	err = backendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}

// InitLogStdout attaches a stdout writer to the backend log and launches it.
func InitLogStdout(logLevel Level) {
	err := backendLog.AddLogWriter(os.Stdout, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the loggerfor level %s: %s", logLevel, err)
		os.Exit(1)
	}
	err = backendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}
