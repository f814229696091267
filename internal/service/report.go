package service

import (
	"context"
	"math"
	"sort"

	"docflow/internal/model"
	"docflow/internal/repository"
)

const (
	dashboardDocuments = 4
	dashboardActivity  = 5
	reportActivity     = 100
)

var statusLabels = map[model.DocumentStatus]string{
	model.StatusApproved: "Approved",
	model.StatusRejected: "Rejected",
	model.StatusPending:  "Pending",
	model.StatusDraft:    "Draft",
}

// ReportService serves read-only aggregates. All figures of one call come
// from a single database snapshot.
type ReportService interface {
	Summary(ctx context.Context) (*model.StatusSummary, error)
	Users(ctx context.Context) ([]model.UserBreakdown, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
	// Report gathers everything the spreadsheet export needs.
	Report(ctx context.Context) (*model.Report, error)
}

type reportService struct {
	*Deps
}

func NewReportService(d *Deps) ReportService {
	d.defaults()
	return &reportService{Deps: d}
}

// Breakdown turns per-status counts into labelled slices in reporting order.
// Each Pct is value/total*100 rounded half away from zero, and 0 for an empty
// total. When the rounded slices sum outside 99..101 the slice that rounding
// moved furthest in the offending direction is nudged by one until they fit.
func Breakdown(counts map[model.DocumentStatus]int) (int, []model.StatusCount) {
	total := 0
	for _, st := range model.Statuses {
		total += counts[st]
	}
	out := make([]model.StatusCount, 0, len(model.Statuses))
	raw := make([]float64, 0, len(model.Statuses))
	sum := 0
	for _, st := range model.Statuses {
		c := model.StatusCount{Label: statusLabels[st], Status: st, Value: counts[st]}
		exact := 0.0
		if total > 0 {
			exact = float64(c.Value) / float64(total) * 100
			c.Pct = int(math.Round(exact))
		}
		sum += c.Pct
		raw = append(raw, exact)
		out = append(out, c)
	}
	if total == 0 {
		return total, out
	}
	for sum > 101 {
		i := nudgeTarget(out, raw, 1)
		out[i].Pct--
		sum--
	}
	for sum < 99 {
		i := nudgeTarget(out, raw, -1)
		out[i].Pct++
		sum++
	}
	return total, out
}

// nudgeTarget returns the slice whose rounding error times dir is largest.
// Ties go to the earlier slice.
func nudgeTarget(out []model.StatusCount, raw []float64, dir float64) int {
	best, bestErr := 0, math.Inf(-1)
	for i := range out {
		if e := (float64(out[i].Pct) - raw[i]) * dir; e > bestErr {
			best, bestErr = i, e
		}
	}
	return best
}

func (s *reportService) summary(ctx context.Context) (*model.StatusSummary, error) {
	counts, err := s.Docs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total, breakdown := Breakdown(counts)
	return &model.StatusSummary{Total: total, Breakdown: breakdown, GeneratedAt: s.Now()}, nil
}

func (s *reportService) users(ctx context.Context) ([]model.UserBreakdown, error) {
	cells, err := s.Docs.CountByOwnerStatus(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.Profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.UserBreakdown, len(profiles))
	out := make([]*model.UserBreakdown, 0, len(profiles))
	row := func(userID string) *model.UserBreakdown {
		if r, ok := byID[userID]; ok {
			return r
		}
		r := &model.UserBreakdown{UserID: userID, Name: userID, Role: model.RoleClient, Counts: emptyCounts()}
		byID[userID] = r
		out = append(out, r)
		return r
	}
	for _, p := range profiles {
		r := row(p.UserID)
		if name := p.FullName(); name != "" {
			r.Name = name
		}
		r.Role = p.Role
	}
	for _, c := range cells {
		r := row(c.OwnerID)
		r.Counts[c.Status] += c.Count
		r.Total += c.Count
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID < out[j].UserID
	})
	res := make([]model.UserBreakdown, len(out))
	for i, r := range out {
		res[i] = *r
	}
	return res, nil
}

func emptyCounts() map[model.DocumentStatus]int {
	m := make(map[model.DocumentStatus]int, len(model.Statuses))
	for _, st := range model.Statuses {
		m[st] = 0
	}
	return m
}

func (s *reportService) Summary(ctx context.Context) (*model.StatusSummary, error) {
	var out *model.StatusSummary
	err := s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.summary(ctx)
		return err
	})
	return out, err
}

func (s *reportService) Users(ctx context.Context) ([]model.UserBreakdown, error) {
	var out []model.UserBreakdown
	err := s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.users(ctx)
		return err
	})
	return out, err
}

func (s *reportService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	out := &model.Dashboard{GeneratedAt: s.Now()}
	err := s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		sum, err := s.summary(ctx)
		if err != nil {
			return err
		}
		out.Total = sum.Total
		out.Pending = sum.Count(model.StatusPending)
		out.Approved = sum.Count(model.StatusApproved)

		if out.Profiles, err = s.Profiles.Count(ctx); err != nil {
			return err
		}
		recent, err := s.Docs.List(ctx, repository.DocumentFilter{}, repository.PageQuery{Limit: dashboardDocuments})
		if err != nil {
			return err
		}
		out.RecentDocuments = recent.Items
		out.RecentActivity, err = s.Audit.ListRecent(ctx, dashboardActivity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reportService) Report(ctx context.Context) (*model.Report, error) {
	out := &model.Report{}
	err := s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		sum, err := s.summary(ctx)
		if err != nil {
			return err
		}
		out.Summary = *sum
		if out.Users, err = s.users(ctx); err != nil {
			return err
		}
		out.RecentActivity, err = s.Audit.ListRecent(ctx, reportActivity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
