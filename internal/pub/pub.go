package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
)

const (
	SettlementEventsChannel = "settlement_events"
)

type SettlementEventPublisher struct {
	rdb *redis.Client
}

func NewSettlementEventPublisher(rdb *redis.Client) *SettlementEventPublisher {
	return &SettlementEventPublisher{rdb: rdb}
}

type SettlementEvent struct {
	EventType         string          `json:"event_type"` // settlement.recorded, settlement.status_changed
	SettlementGroupID string          `json:"settlement_group_id,omitempty"`
	EntryID           string          `json:"entry_id,omitempty"`
	EntryType         string          `json:"entry_type,omitempty"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	FeeAmount         decimal.Decimal `json:"fee_amount"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	Currency          string          `json:"currency"`
	GatewayTxID       string          `json:"gateway_tx_id,omitempty"`
	RequestID         string          `json:"request_id,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// PublishSettlementEvent publishes a settlement event to Redis. A publisher
// without a redis client drops events silently; eventing is optional.
func (p *SettlementEventPublisher) PublishSettlementEvent(ctx context.Context, event *SettlementEvent) error {
	if p.rdb == nil {
		return nil
	}
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, SettlementEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[SettlementEvent] Published: %s for group=%s, gateway_tx=%s",
		event.EventType, event.SettlementGroupID, event.GatewayTxID)

	return nil
}

// PublishSettlementRecorded publishes the recording of a fresh capture.
func (p *SettlementEventPublisher) PublishSettlementRecorded(ctx context.Context, agg *domain.SettlementAggregate) error {
	donation := agg.DonationEntry()
	if donation == nil {
		return fmt.Errorf("aggregate has no donation entry")
	}

	requestID := ""
	if donation.RequestID != nil {
		requestID = *donation.RequestID
	}

	return p.PublishSettlementEvent(ctx, &SettlementEvent{
		EventType:         "settlement.recorded",
		SettlementGroupID: donation.SettlementGroupID,
		EntryID:           donation.ID,
		EntryType:         string(donation.Type),
		Status:            string(donation.Status),
		Amount:            donation.Amount,
		FeeAmount:         donation.FeeAmount,
		NetAmount:         donation.NetAmount,
		Currency:          string(donation.Currency),
		GatewayTxID:       donation.GatewayTxID,
		RequestID:         requestID,
	})
}

// PublishStatusChanged publishes an admin lifecycle transition.
func (p *SettlementEventPublisher) PublishStatusChanged(ctx context.Context, entry *domain.SettlementEntry) error {
	return p.PublishSettlementEvent(ctx, &SettlementEvent{
		EventType:         "settlement.status_changed",
		SettlementGroupID: entry.SettlementGroupID,
		EntryID:           entry.ID,
		EntryType:         string(entry.Type),
		Status:            string(entry.Status),
		Amount:            entry.Amount,
		FeeAmount:         entry.FeeAmount,
		NetAmount:         entry.NetAmount,
		Currency:          string(entry.Currency),
		GatewayTxID:       entry.GatewayTxID,
	})
}
