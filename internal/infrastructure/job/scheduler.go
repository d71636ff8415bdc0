package job

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// NewScheduler builds a cron runner with the status job registered under spec.
// A nil status job (no managed services) leaves the runner empty. Overlapping
// runs are skipped. The caller owns Start and Stop.
func NewScheduler(spec string, statusJob *ServiceStatusJob, log zerolog.Logger) (*cron.Cron, error) {
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if statusJob == nil {
		log.Info().Msg("no managed services, status polling disabled")
		return c, nil
	}
	if _, err := c.AddJob(spec, statusJob); err != nil {
		return nil, fmt.Errorf("schedule service status job %q: %w", spec, err)
	}
	return c, nil
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
