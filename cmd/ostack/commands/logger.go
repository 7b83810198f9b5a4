package commands

import (
	"os"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// logrusLogger adapts logrus to openstack.Logger.
type logrusLogger struct {
	log *logrus.Logger
}

var _ openstack.Logger = (*logrusLogger)(nil)

// newLogger logs to stderr so that json and yaml output stay parseable.
// Only warnings are shown unless --verbose or --debug is given.
func newLogger() *logrusLogger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)

	if viper.GetBool("verbose") || viper.GetBool("debug") {
		log.SetLevel(logrus.DebugLevel)
	}

	return &logrusLogger{log: log}
}

func (l *logrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.WithFields(fields).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields map[string]interface{}) {
	l.log.WithFields(fields).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.WithFields(fields).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields map[string]interface{}) {
	l.log.WithFields(fields).Error(msg)
}
