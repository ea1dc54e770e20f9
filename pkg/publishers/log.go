package publishers

import "context"

// logPublisher writes the event to the structured log. Useful as a default
// sink and in development.
type logPublisher struct {
	id  string
	log Logger
}

func newLogPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	return &logPublisher{
		id:  cfg.ID,
		log: ensureLogger(log),
	}, nil
}

func (l *logPublisher) ID() string   { return l.id }
func (l *logPublisher) Type() string { return TypeLog }

func (l *logPublisher) Publish(_ context.Context, evt Event) error {
	l.log.InfoObj("import report", "report_event", evt)
	return nil
}
