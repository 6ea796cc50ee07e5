package config

import "go.uber.org/zap"

// Log is the process-wide sugared logger.
var Log *zap.SugaredLogger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = l.Sugar()
}

// InitLogger switches to a development logger when APP_ENV != production.
func InitLogger(env string) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	Log = l.Sugar()
}
