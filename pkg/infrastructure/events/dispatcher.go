package events

import (
	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/service"
)

// LogDispatcher records domain events as structured log entries.
type LogDispatcher struct {
	logger log.FieldLogger
}

var _ service.EventDispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher(logger log.FieldLogger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(event service.Event) error {
	d.logger.WithFields(log.Fields{
		"event":   event.Type(),
		"payload": event,
	}).Info("domain event")
	return nil
}
