package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the outcome of a single newsletter send.
type DeliveryStatus string

// Possible delivery status values
const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// Delivery validation errors
var (
	ErrEmptyDeliveryID     = errors.New("delivery ID cannot be empty")
	ErrEmptyDeliverySubj   = errors.New("delivery subject cannot be empty")
	ErrInvalidDeliveryStat = errors.New("invalid delivery status")
)

// Delivery is the audit record of one personalized newsletter email. One row
// is written per recipient per broadcast, whether the send succeeded or not.
type Delivery struct {
	ID            uuid.UUID      `json:"id"`
	RecipientID   uuid.UUID      `json:"recipient_id"`
	Subject       string         `json:"subject"`
	CategoryCount int            `json:"category_count"`
	TaskCount     int            `json:"task_count"`
	Status        DeliveryStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewDelivery creates a delivery record for the given recipient and send
// outcome. sendErr may be nil for successful sends.
func NewDelivery(recipientID uuid.UUID, subject string, categoryCount, taskCount int, status DeliveryStatus, sendErr error) (*Delivery, error) {
	d := &Delivery{
		ID:            uuid.New(),
		RecipientID:   recipientID,
		Subject:       subject,
		CategoryCount: categoryCount,
		TaskCount:     taskCount,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
	if sendErr != nil {
		d.Error = sendErr.Error()
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate checks that the delivery record has valid data.
func (d *Delivery) Validate() error {
	if d.ID == uuid.Nil || d.RecipientID == uuid.Nil {
		return ErrEmptyDeliveryID
	}

	if d.Subject == "" {
		return ErrEmptyDeliverySubj
	}

	switch d.Status {
	case DeliverySent, DeliveryFailed, DeliverySkipped:
		return nil
	default:
		return ErrInvalidDeliveryStat
	}
}
