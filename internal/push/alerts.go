package push

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/analytics"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Alerter turns behavioral flags into push notifications after a trade is
// saved. Only flags worth interrupting someone over trigger a send; the
// Tag field lets the browser collapse repeats while a streak persists.
type Alerter struct {
	logger *zap.Logger
	svc    *Service
}

// NewAlerter creates an alerter delivering through the given service.
func NewAlerter(logger *zap.Logger, svc *Service) *Alerter {
	return &Alerter{logger: logger, svc: svc}
}

// TradeSaved evaluates the user's full trade list after a create or update
// and queues any warranted notifications. Delivery is best-effort; failures
// are logged and never surfaced to the save path.
func (a *Alerter) TradeSaved(ctx context.Context, username string, trades []types.Trade) {
	ins := analytics.Analyze(trades)

	if ins.StopTrading {
		a.notify(ctx, username, Notification{
			Title: "Time to step away",
			Body:  fmt.Sprintf("You are %d losses deep. Consider stopping for today.", ins.LosingStreak),
			Tag:   "stop-trading",
		})
	}
	if ins.HotHand {
		a.notify(ctx, username, Notification{
			Title: "Hot hand",
			Body:  fmt.Sprintf("%d wins in a row. Stick to the plan that got you here.", ins.WinningStreak),
			Tag:   "hot-hand",
		})
	}
	if ins.Tilt {
		a.notify(ctx, username, Notification{
			Title: "Tilt warning",
			Body:  "Your last few trades all closed red. Slow down.",
			Tag:   "tilt",
		})
	}
}

func (a *Alerter) notify(ctx context.Context, username string, n Notification) {
	if err := a.svc.Notify(ctx, username, n); err != nil {
		a.logger.Warn("behavioral alert failed",
			zap.String("username", username),
			zap.String("tag", n.Tag),
			zap.Error(err),
		)
	}
}
