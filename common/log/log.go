package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// 未调用 InitLog 时（如单元测试）使用默认 logger
var logger = newLogger(os.Stdout, "qwirkle")

func newLogger(w io.Writer, prefix string) *log.Logger {
	l := log.New(w)
	l.SetPrefix(prefix)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	return l
}

// InitLog 初始化进程级 logger
// 使用 stdout，避免 IDE 控制台将 stderr 全部标红
func InitLog(appName string, logLevel string) {
	logger = newLogger(os.Stdout, appName)
	// 显示文件名和行号
	logger.SetReportCaller(true)
	logger.SetCallerOffset(1)
	logger.SetLevel(ParseLevel(logLevel))
}

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// SetLevel 运行时调整级别（配置热更新时使用）
func SetLevel(level string) {
	logger.SetLevel(ParseLevel(level))
}

// SetOutput 重定向输出，测试中用于静默日志
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Fatal(format string, args ...any) {
	logger.Fatalf(format, args...)
}

func Info(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...any) {
	logger.Errorf(format, args...)
}

func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}
