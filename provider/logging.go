package provider

import (
	"errors"
	"io"

	"github.com/amobagan/nutristream/logger"
)

// Logged wraps stream so failed sends and receives are logged under name.
// An orderly io.EOF is logged at debug level.
func Logged[I, O any](stream DuplexStream[I, O], name string, log *logger.Logger) DuplexStream[I, O] {
	return &loggedStream[I, O]{inner: stream, name: name, log: log}
}

type loggedStream[I, O any] struct {
	inner DuplexStream[I, O]
	name  string
	log   *logger.Logger
}

func (l *loggedStream[I, O]) Send(v I) error {
	err := l.inner.Send(v)
	if err != nil {
		l.log.Warn("provider send failed", logger.Fields("provider", l.name, logger.FieldError, err.Error()))
	}
	return err
}

func (l *loggedStream[I, O]) Recv() (O, error) {
	v, err := l.inner.Recv()
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		l.log.Debug("provider stream ended", logger.Fields("provider", l.name))
	default:
		l.log.Warn("provider recv failed", logger.Fields("provider", l.name, logger.FieldError, err.Error()))
	}
	return v, err
}

func (l *loggedStream[I, O]) Close() error {
	err := l.inner.Close()
	if err != nil {
		l.log.Debug("provider close returned error", logger.Fields("provider", l.name, logger.FieldError, err.Error()))
	}
	return err
}
