package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Logger defines the logging surface publishers rely on. A nil logger is
// normalized to a no-op via ensureLogger, so sinks never guard their calls.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// Fanout delivers a job's import-report event to every configured sink.
type Fanout struct {
	sinks []Publisher
	log   Logger
}

// NewFanout builds the dispatcher, dropping nil sinks.
func NewFanout(sinks []Publisher, log Logger) *Fanout {
	kept := make([]Publisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Fanout{sinks: kept, log: ensureLogger(log)}
}

// Publish delivers the event to each sink in turn. A failing sink never
// blocks the remaining ones. It returns the number of sinks that accepted
// the report along with the joined failures.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.sinks) == 0 {
		return 0, nil
	}

	delivered := 0
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", sink.Type(), sink.ID(), err))
			continue
		}
		delivered++
	}
	if len(errs) > 0 {
		f.log.WarnObj("report fanout incomplete", "fanout_delivery", map[string]any{
			"job_id":    evt.JobID,
			"delivered": delivered,
			"failed":    len(errs),
		})
	} else {
		f.log.DebugObj("report fanout delivered", "fanout_delivery", map[string]any{
			"job_id":    evt.JobID,
			"delivered": delivered,
		})
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}
