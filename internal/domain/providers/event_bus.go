package providers

import (
	"context"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// Event bus channels. Consumers subscribe per event family or to the
// firehose channel carrying everything.
const (
	ChannelLedgerAll = "ledger.events"
	ChannelDiagnoses = "ledger.diagnoses"
	ChannelLabOrders = "ledger.lab_orders"
	ChannelCohorts   = "cohort.membership"
)

// EventBus defines the interface for publishing ledger notices to
// downstream consumers (cohort tooling, report refreshers)
type EventBus interface {
	// Publish publishes a notice to all subscribers of a channel
	Publish(ctx context.Context, channel string, notice *entities.LedgerNotice) error

	// Subscribe subscribes to notices on a channel; the returned channel is
	// closed when ctx is canceled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.LedgerNotice, error)

	// Close shuts down the bus and all subscriptions
	Close() error
}
