package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Huzai911/workspaced/internal/adapter/otel"
	"github.com/Huzai911/workspaced/internal/domain/usage"
)

// UsageService tracks LLM token consumption in WorkspaceTokens. Records live
// in memory for the lifetime of the process; the usage surface is a running
// meter, not an audit log.
type UsageService struct {
	mu      sync.Mutex
	records []usage.Record
	metrics *otel.Metrics
	now     func() time.Time
}

// NewUsageService creates a UsageService. metrics may be nil when telemetry
// is disabled.
func NewUsageService(metrics *otel.Metrics) *UsageService {
	return &UsageService{metrics: metrics, now: time.Now}
}

// Track records one LLM call and returns its cost in USD.
func (s *UsageService) Track(ctx context.Context, promptTokens, completionTokens int, model, operation string) float64 {
	rec := usage.NewRecord(promptTokens, completionTokens, model, operation)
	rec.Timestamp = s.now().UTC()

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	if s.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("operation", operation),
		)
		s.metrics.LLMTokens.Add(ctx, int64(rec.TotalTokens), attrs)
		s.metrics.LLMCost.Record(ctx, rec.CostUSD, attrs)
	}

	return rec.CostUSD
}

// Totals returns WorkspaceTokens and cost over the trailing window.
func (s *UsageService) Totals(days int) (workspaceTokens int, costUSD float64) {
	cutoff := s.now().AddDate(0, 0, -days)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].Timestamp.Before(cutoff) {
			continue
		}
		workspaceTokens += s.records[i].WorkspaceTokens
		costUSD += s.records[i].CostUSD
	}
	return workspaceTokens, costUSD
}

// DailyUsage returns per-day rollups over the trailing window, newest first.
func (s *UsageService) DailyUsage(days int) []usage.Daily {
	cutoff := s.now().AddDate(0, 0, -days)
	byDay := make(map[string]*usage.Daily)

	s.mu.Lock()
	for i := range s.records {
		rec := &s.records[i]
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		key := rec.Timestamp.Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &usage.Daily{Date: key}
			byDay[key] = d
		}
		d.TotalTokens += rec.TotalTokens
		d.WorkspaceTokens += rec.WorkspaceTokens
		d.CostUSD += rec.CostUSD
		d.Operations++
	}
	s.mu.Unlock()

	out := make([]usage.Daily, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// CurrentMonthCost returns the cost since the first of the current month.
func (s *UsageService) CurrentMonthCost() float64 {
	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for i := range s.records {
		if !s.records[i].Timestamp.Before(startOfMonth) {
			total += s.records[i].CostUSD
		}
	}
	return total
}

// Records returns a copy of all tracked records, oldest first.
func (s *UsageService) Records() []usage.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]usage.Record, len(s.records))
	copy(out, s.records)
	return out
}
