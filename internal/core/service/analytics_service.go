package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const (
	activityWindow    = 7 * 24 * time.Hour
	chartDays         = 30
	popularToolsLimit = 10
	recentLimit       = 20

	unknownToolName  = "Unknown"
	defaultToolColor = "#0078D4"
	dayLayout        = "2006-01-02"
)

// AnalyticsService aggregates the launch ledger for the admin dashboard.
type AnalyticsService struct {
	launches ports.LaunchRepository
	users    ports.UserRepository
	tools    ports.ToolRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewAnalyticsService(launches ports.LaunchRepository, users ports.UserRepository, tools ports.ToolRepository, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{launches: launches, users: users, tools: tools, log: log, now: time.Now}
}

func (s *AnalyticsService) Summary(ctx context.Context, p domain.Principal) (*ports.AnalyticsSummary, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}

	now := s.now().UTC()
	weekAgo := now.Add(-activityWindow)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	chartStart := today.AddDate(0, 0, -(chartDays - 1))

	var (
		sum ports.AnalyticsSummary
		err error
	)
	if sum.TotalLaunches, err = s.launches.Count(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if sum.RecentLaunches, err = s.launches.Count(ctx, weekAgo); err != nil {
		return nil, err
	}
	if sum.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if sum.ActiveUsers, err = s.launches.DistinctUsers(ctx, weekAgo); err != nil {
		return nil, err
	}

	tools, err := s.toolIndex(ctx)
	if err != nil {
		return nil, err
	}

	top, err := s.launches.TopTools(ctx, popularToolsLimit)
	if err != nil {
		return nil, err
	}
	sum.PopularTools = make([]ports.PopularTool, 0, len(top))
	for _, t := range top {
		name, color := unknownToolName, defaultToolColor
		if tool, ok := tools[t.ToolID]; ok {
			name = tool.Name
			if tool.Color != "" {
				color = tool.Color
			}
		}
		sum.PopularTools = append(sum.PopularTools, ports.PopularTool{ToolID: t.ToolID, Name: name, Launches: t.Launches, Color: color})
	}

	daily, err := s.launches.Daily(ctx, chartStart)
	if err != nil {
		return nil, err
	}
	sum.ChartData = fillDays(chartStart, chartDays, daily)

	recent, err := s.launches.Recent(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	users := make(map[string]*domain.User)
	sum.RecentActivity = make([]ports.ActivityItem, 0, len(recent))
	for _, l := range recent {
		u, ok := users[l.UserID]
		if !ok {
			u, _ = s.users.FindByID(ctx, l.UserID)
			users[l.UserID] = u
		}
		item := ports.ActivityItem{ToolID: l.ToolID, ToolName: unknownToolName, ToolColor: defaultToolColor, LaunchedAt: l.LaunchedAt}
		if u != nil {
			item.UserName = u.Name
			item.UserEmail = u.Email
		}
		if tool, ok := tools[l.ToolID]; ok {
			item.ToolName = tool.Name
			if tool.Color != "" {
				item.ToolColor = tool.Color
			}
		}
		sum.RecentActivity = append(sum.RecentActivity, item)
	}

	return &sum, nil
}

func (s *AnalyticsService) toolIndex(ctx context.Context) (map[string]*domain.Tool, error) {
	list, err := s.tools.List(ctx, false)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*domain.Tool, len(list))
	for _, t := range list {
		idx[t.ID] = t
	}
	return idx, nil
}

// fillDays returns one point per UTC day starting at start, zero where the ledger has none.
func fillDays(start time.Time, days int, counts []ports.DailyLaunchCount) []ports.ChartPoint {
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Launches
	}
	out := make([]ports.ChartPoint, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		out = append(out, ports.ChartPoint{Date: d, Launches: byDay[d]})
	}
	return out
}
