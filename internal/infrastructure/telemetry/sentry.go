package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	log "github.com/sirupsen/logrus"
)

const flushTimeout = 5 * time.Second

// skipSentryField marks log entries already reported to Sentry by the caller.
const skipSentryField = "skip_sentry"

type sentryHook struct {
	*sentrylogrus.Hook
}

// Fire forwards the entry unless it was already reported.
func (h sentryHook) Fire(entry *log.Entry) error {
	if skip, _ := entry.Data[skipSentryField].(bool); skip {
		return nil
	}
	return h.Hook.Fire(entry)
}

// InitSentry sets up the global Sentry client and forwards error level logs
// to it. The returned func flushes pending events.
func InitSentry(dsn, release string) (func(), error) {
	opts := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      "prod",
		AttachStacktrace: true,
		Release:          release,
	}
	if err := sentry.Init(opts); err != nil {
		return nil, err
	}

	levels := []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
	hook, err := sentrylogrus.New(levels, opts)
	if err != nil {
		return nil, err
	}
	log.AddHook(sentryHook{hook})

	return func() {
		sentry.Flush(flushTimeout)
		hook.Flush(flushTimeout)
	}, nil
}
