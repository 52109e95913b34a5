package rebooksvc

import (
	"context"
	"log/slog"
	"time"
)

// Reporter counts open loans past their due date. It only reads and logs;
// overdue loans are never closed or mutated by the sweep.
type Reporter interface {
	ReportOverdue(ctx context.Context) (int64, error)
}

type reporter struct {
	r   Repo
	log *slog.Logger
	now func() time.Time
}

func NewReporter(r Repo, log *slog.Logger) Reporter {
	return &reporter{r: r, log: log, now: time.Now}
}

func (c *reporter) ReportOverdue(ctx context.Context) (int64, error) {
	asOf := c.now().UTC()
	n, err := c.r.CountOverdue(ctx, asOf)
	if err != nil {
		c.log.Error("overdue sweep failed", "err", err)
		return 0, err
	}
	if n > 0 {
		c.log.Warn("overdue open loans", "count", n, "as_of", asOf)
	} else {
		c.log.Info("no overdue loans", "as_of", asOf)
	}
	return n, nil
}
