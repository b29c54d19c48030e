package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil {
		l.SetLevel(level)
	}
	return l
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Info(args ...interface{})                  { logger.Info(args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Fatal(args ...interface{})                 { logger.Fatal(args...) }
