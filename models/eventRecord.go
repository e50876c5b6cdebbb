package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wagelink/workpay_backend/config"
	"gorm.io/gorm"
)

type LedgerEventType string

const (
	EventCheckIn        LedgerEventType = "checkin"
	EventCheckOut       LedgerEventType = "checkout"
	EventEscrowCreated  LedgerEventType = "escrow_created"
	EventEscrowDisputed LedgerEventType = "escrow_disputed"
	EventEscrowReleased LedgerEventType = "escrow_released"
	EventEscrowRefunded LedgerEventType = "escrow_refunded"
)

// Outbox publish statuses for EventRecord.PublishStatus.
// Keep these as strings (DB values) for backwards compatibility.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// EventRecord is a transactional-outbox row: written inside the same DB
// transaction as the ledger write it describes, published to Pub/Sub
// asynchronously by the outbox dispatcher after commit.
type EventRecord struct {
	ID        int             `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType LedgerEventType `gorm:"size:32;not null;index" json:"event_type"`
	Employee  string          `gorm:"size:64;not null;index" json:"employee"`
	Day       uint64          `gorm:"not null" json:"day"`
	Timestamp int64           `gorm:"not null" json:"timestamp"`
	Payload   []byte          `gorm:"type:blob" json:"payload"`

	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToEventMessage(record EventRecord) config.EventMessage {
	return config.EventMessage{
		ID:            record.ID,
		EventType:     string(record.EventType),
		Employee:      record.Employee,
		Day:           record.Day,
		Timestamp:     record.Timestamp,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// PublishLedgerEvent writes the event row inside the caller's DB transaction
// but does NOT publish to Pub/Sub. Publishing is performed asynchronously by
// the outbox dispatcher after commit, so a slow or failing broker never
// aborts the originating ledger operation.
func PublishLedgerEvent(ctx context.Context, tx *gorm.DB, eventType LedgerEventType, employee string, day uint64, timestamp int64, payload interface{}) error {

	var payloadInByte []byte
	var err error
	if payload != nil {
		payloadInByte, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	record := EventRecord{
		EventType:     eventType,
		Employee:      employee,
		Day:           day,
		Timestamp:     timestamp,
		Payload:       payloadInByte,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}
