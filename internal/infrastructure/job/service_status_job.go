// Package job holds the launchpad's scheduled background work.
package job

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

const statusJobTimeout = 25 * time.Second

type statusSource interface {
	AllStatuses(ctx context.Context) ([]domain.ServiceState, error)
}

// ServiceStatusJob polls every catalog service and publishes whether it is running.
type ServiceStatusJob struct {
	source statusSource
	gauge  *prometheus.GaugeVec
	log    zerolog.Logger
}

func NewServiceStatusJob(source statusSource, gauge *prometheus.GaugeVec, log zerolog.Logger) *ServiceStatusJob {
	return &ServiceStatusJob{source: source, gauge: gauge, log: log}
}

// Run satisfies cron.Job. A failed poll leaves the previous gauge values in place.
func (j *ServiceStatusJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), statusJobTimeout)
	defer cancel()

	states, err := j.source.AllStatuses(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("service status poll failed")
		return
	}

	down := 0
	for _, st := range states {
		up := 0.0
		if st.Status == domain.ServiceRunning {
			up = 1
		} else {
			down++
		}
		j.gauge.WithLabelValues(st.Name).Set(up)
	}
	j.log.Debug().Int("services", len(states)).Int("not_running", down).Msg("service status polled")
}
