package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// ServiceAdmin exposes the service control adapter to administrators only.
type ServiceAdmin struct {
	ctl ports.ServiceController
	log zerolog.Logger
}

func NewServiceAdmin(ctl ports.ServiceController, log zerolog.Logger) *ServiceAdmin {
	return &ServiceAdmin{ctl: ctl, log: log}
}

// List merges the static catalog with one batched status query.
func (s *ServiceAdmin) List(ctx context.Context, p domain.Principal) ([]ports.ServiceView, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	states, err := s.ctl.AllStatuses(ctx)
	if err != nil {
		return nil, err
	}
	configs := s.ctl.Configs()
	out := make([]ports.ServiceView, 0, len(configs))
	for i, cfg := range configs {
		var st domain.ServiceState
		if i < len(states) {
			st = states[i]
		}
		out = append(out, serviceView(cfg, st))
	}
	return out, nil
}

func (s *ServiceAdmin) Get(ctx context.Context, p domain.Principal, name string, withLogs bool) (*ports.ServiceDetail, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	cfg, err := s.ctl.Config(name)
	if err != nil {
		return nil, err
	}
	st, err := s.ctl.Status(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	detail := &ports.ServiceDetail{ServiceView: serviceView(cfg, st)}
	if withLogs {
		if detail.Logs, err = s.ctl.Logs(ctx, cfg.Name); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// Perform runs the action and returns the status observed right after it.
func (s *ServiceAdmin) Perform(ctx context.Context, p domain.Principal, name, action string) (*ports.ServiceView, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	act, err := domain.ParseServiceAction(action)
	if err != nil {
		return nil, err
	}
	cfg, err := s.ctl.Config(name)
	if err != nil {
		return nil, err
	}
	if err := s.ctl.Perform(ctx, cfg.Name, act); err != nil {
		return nil, err
	}
	s.log.Info().Str("service", cfg.Name).Str("action", string(act)).Str("admin", p.UserID).Msg("service action requested")

	st, err := s.ctl.Status(ctx, cfg.Name)
	if err != nil {
		s.log.Warn().Err(err).Str("service", cfg.Name).Msg("status after action unavailable")
		st = domain.ServiceState{Name: cfg.Name, Status: domain.ServiceError, Error: err.Error()}
	}
	view := serviceView(cfg, st)
	return &view, nil
}

func serviceView(cfg domain.ServiceConfig, st domain.ServiceState) ports.ServiceView {
	v := ports.ServiceView{
		ServiceConfig: cfg,
		Status:        st.Status,
		StartType:     st.StartType,
		Exists:        st.Exists,
		Error:         st.Error,
	}
	if v.Status == "" {
		v.Status = domain.ServiceError
	}
	return v
}
