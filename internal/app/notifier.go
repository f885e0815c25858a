package app

import (
	"context"

	"github.com/flashdrop/drop-api/internal/domain"
)

// Notifier receives engine state changes for broadcast. Implementations must
// tolerate being called concurrently; delivery is best-effort and must never
// influence the outcome of the transaction that produced the change.
type Notifier interface {
	StockChanged(ctx context.Context, dropID string, availableStock int)
	PurchaseCompleted(ctx context.Context, dropID, purchaser string, recent []domain.RecentPurchaser)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) StockChanged(context.Context, string, int) {}

func (NopNotifier) PurchaseCompleted(context.Context, string, string, []domain.RecentPurchaser) {}
