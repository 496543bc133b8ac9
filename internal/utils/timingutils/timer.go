package timingutils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// ShowTimingLogs 控制是否输出计时日志。由配置在启动时设置一次。
var ShowTimingLogs bool

// GetDeferrableTimingLogger creates a logger function that starts a timer when called and ends the timer when the calling function ends and logs (at debug level) the time diff.
func GetDeferrableTimingLogger(message string) func() {
	if !ShowTimingLogs {
		return func() {}
	}

	start := time.Now()
	return func() {
		log.Debugf("%v: %v", message, time.Since(start))
	}
}
