package logger

import (
	"time"
)

// LogAndMeasureExecutionTime logs that `functionName` has started and returns
// a function that, when deferred, logs how long the call took.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
