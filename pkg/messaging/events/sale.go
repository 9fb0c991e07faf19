package events

import (
	"encoding/json"
	"time"

	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/google/uuid"
)

// Sale is the payload shared by sale events.
type Sale struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	SaleID    uuid.UUID         `json:"sale_id"`
	ProductID uuid.UUID         `json:"product_id"`
	Quantity  int32             `json:"quantity"`
	UnitPrice int64             `json:"unit_price"`
	Total     int64             `json:"total"`
	Timestamp time.Time         `json:"timestamp"`
}

type SaleRecordedEvent struct {
	Sale
}

func (e SaleRecordedEvent) Subject() string {
	return messaging.SalesRecordedSubject
}

func (e SaleRecordedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// SaleDeletedEvent is emitted after a sale was removed and its stock restored.
type SaleDeletedEvent struct {
	Sale
}

func (e SaleDeletedEvent) Subject() string {
	return messaging.SalesDeletedSubject
}

func (e SaleDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
