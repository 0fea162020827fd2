package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ivanoskov/wallet/internal/analytics"
	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
)

// Breakdown is the monthly category report with its donut layout.
type Breakdown struct {
	analytics.Result
	Donut charts.Donut `json:"donut"`
}

// Breakdown aggregates the window's transactions into category slices. Results
// are cached per user until the next write or the cache TTL; every call gets
// its own copy.
func (s *ExpenseTracker) Breakdown(ctx context.Context, userID string) (*Breakdown, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if cached, ok := s.reports.Get(userID); ok {
		s.logger.DebugContext(ctx, "breakdown served from cache", log.FieldUserID, userID, log.FieldCacheHit, true)
		return cached.(*Breakdown).clone(), nil
	}

	start := time.Now()
	now := s.opts.Now()
	since := s.opts.Analytics.Since(now)
	txs, err := s.repo.GetTransactions(ctx, userID, model.TransactionFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	res := analytics.Aggregate(txs, s.opts.Analytics, now)
	b := &Breakdown{
		Result: res,
		Donut:  charts.Build(res.Slices, res.TotalBase, s.opts.Geometry),
	}
	s.reports.Set(userID, b, cache.DefaultExpiration)

	s.logger.InfoContext(ctx, "breakdown computed",
		log.FieldOperation, log.OpReport,
		log.FieldUserID, userID,
		log.FieldCount, len(txs),
		log.FieldDuration, time.Since(start),
	)
	return b.clone(), nil
}

func (b *Breakdown) clone() *Breakdown {
	c := *b
	c.Slices = make([]analytics.Slice, len(b.Slices))
	copy(c.Slices, b.Slices)
	c.Donut.Paths = make([]charts.Path, len(b.Donut.Paths))
	copy(c.Donut.Paths, b.Donut.Paths)
	return &c
}
