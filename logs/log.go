package logs

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// 定义日志级别常量（数值越大，级别越高）
const (
	LevelTrace   = iota // 0（最低，最详细）
	LevelDebug          // 1
	LevelVerbose        // 2
	LevelInfo           // 3
	LevelWarning        // 4
	LevelError          // 5（最高，最严重）
)

var logLevel = LevelInfo // 全局日志级别

// 全局 Logger 实例
var logger *Logger

// tag 每行日志的前缀标识（节点名/工具名）
var tag = "escrow"

const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

// Logger 结构体
type Logger struct {
	traceLogger   *log.Logger
	debugLogger   *log.Logger
	verboseLogger *log.Logger
	infoLogger    *log.Logger
	warnLogger    *log.Logger
	errorLogger   *log.Logger
}

// 初始化全局 Logger 实例
func init() {
	logger = newLogger(os.Stdout, os.Stderr)
}

func newLogger(out, errOut io.Writer) *Logger {
	return &Logger{
		traceLogger:   log.New(out, "[TRACE]   ", flags),
		debugLogger:   log.New(out, "[DEBUG]   ", flags),
		verboseLogger: log.New(out, "[VERBOSE] ", flags),
		infoLogger:    log.New(out, "[INFO]    ", flags),
		warnLogger:    log.New(out, "[WARN]    ", flags),
		errorLogger:   log.New(errOut, "[ERROR]   ", flags),
	}
}

// SetOutput 重定向输出（测试与 CLI 静默模式使用）
func SetOutput(out, errOut io.Writer) {
	logger = newLogger(out, errOut)
}

// SetLevel 设置全局级别
func SetLevel(level int) {
	if level < LevelTrace {
		level = LevelTrace
	}
	if level > LevelError {
		level = LevelError
	}
	logLevel = level
}

func GetLevel() int {
	return logLevel
}

// SetTag 设置日志前缀
func SetTag(t string) {
	tag = t
}

// ParseLevel 级别名 -> 级别
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %q", s)
}

// Output 的调用深度：包级函数 -> output -> Logger.Output
const callDepth = 3

func output(l *log.Logger, format string, v ...interface{}) {
	_ = l.Output(callDepth, tag+" "+fmt.Sprintf(format, v...))
}

// 包级别的日志方法
func Trace(format string, v ...interface{}) {
	if logLevel <= LevelTrace {
		output(logger.traceLogger, format, v...)
	}
}

func Debug(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		output(logger.debugLogger, format, v...)
	}
}

func Verbose(format string, v ...interface{}) {
	if logLevel <= LevelVerbose {
		output(logger.verboseLogger, format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		output(logger.infoLogger, format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if logLevel <= LevelWarning {
		output(logger.warnLogger, format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if logLevel <= LevelError {
		output(logger.errorLogger, format, v...)
	}
}
