package utils

import (
	"os"

	"github.com/LenBanana/DreckFoods/config"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the process-wide logrus logger.
func InitLogger() {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	level := logrus.InfoLevel
	if config.App != nil {
		if parsed, err := logrus.ParseLevel(config.App.LogLevel); err == nil {
			level = parsed
		}
	}
	logrus.SetLevel(level)
}
