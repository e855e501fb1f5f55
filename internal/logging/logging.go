// Package logging builds the shared zap logger.
package logging

import "go.uber.org/zap"

// New returns a production JSON logger, or a human-readable development
// logger when debug is set.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
