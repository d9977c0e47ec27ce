// Package log — тонкая обёртка над logrus с цветными префиксами для консоли.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus и добавляет printf-подобные методы.
type Logger struct {
	*logrus.Logger
	verbose bool
	green   *color.Color
	red     *color.Color
	yellow  *color.Color
}

// New создаёт логгер с уровнем level ("debug", "info", "warn", "error").
// Переменная окружения DEBUG=true принудительно включает debug.
func New(level string) *Logger {
	l := &Logger{
		Logger: logrus.New(),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
	}

	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006/01/02 15:04:05",
		FullTimestamp:   true,
		DisableSorting:  true,
	})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if os.Getenv("DEBUG") == "true" {
		lvl = logrus.DebugLevel
	}
	l.SetLevel(lvl)

	return l
}

// Discard возвращает логгер, который ничего не пишет. Удобно для тестов.
func Discard() *Logger {
	l := New("error")
	l.SetOutput(io.Discard)
	return l
}

// SetVerbose включает вывод первопричин ошибок (см. Cause).
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Verbose сообщает, включён ли подробный режим.
func (l *Logger) Verbose() bool {
	return l.verbose
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.Logger.Debug(fmt.Sprintf(format, v...))
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.Logger.Info(fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.Logger.Warn(l.yellow.Sprint(fmt.Sprintf(format, v...)))
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.Logger.Error(l.red.Sprint(fmt.Sprintf(format, v...)))
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Logger.Fatal(l.red.Sprint(fmt.Sprintf(format, v...)))
}

// Success пишет info-сообщение зелёным.
func (l *Logger) Success(format string, v ...interface{}) {
	l.Logger.Info(l.green.Sprint(fmt.Sprintf(format, v...)))
}

// Cause логирует первопричину ошибки только в подробном режиме.
func (l *Logger) Cause(err error) {
	if err == nil || !l.verbose {
		return
	}
	l.Logger.WithError(err).Warn("cause")
}
