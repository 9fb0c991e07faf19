package messaging

import (
	"context"
)

const (
	SalesStream          = "SALES"
	SalesSubjects        = "sales.>"
	SalesRecordedSubject = "sales.recorded"
	SalesDeletedSubject  = "sales.deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
