package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/gamevault/inventory/pkg/logger"
	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	sale := events.Sale{
		SaleID:    uuid.New(),
		ProductID: uuid.New(),
		Quantity:  3,
		UnitPrice: 150000,
		Total:     450000,
		Timestamp: time.Now(),
	}
	recorded, _ := events.SaleRecordedEvent{Sale: sale}.Payload()
	deleted, _ := events.SaleDeletedEvent{Sale: sale}.Payload()

	testCases := []struct {
		name       string
		newMockMsg func() *mockAckableMsg
		wantLog    string
		wantIDs    bool
	}{
		{
			name: "sale recorded",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(recorded).Times(1)
				msg.On("Subject").Return(messaging.SalesRecordedSubject)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			wantLog: "sale recorded",
			wantIDs: true,
		},
		{
			name: "sale deleted",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(deleted).Times(1)
				msg.On("Subject").Return(messaging.SalesDeletedSubject)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			wantLog: "sale deleted",
			wantIDs: true,
		},
		{
			name: "invalid message is terminated",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Subject").Return(messaging.SalesRecordedSubject)
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
			wantLog: "failed to unmarshal message",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
			mockMsg := tc.newMockMsg()

			// when
			handleMessage(context.Background(), mockMsg, log)

			// then
			mockMsg.AssertExpectations(t)
			var rec map[string]any
			assert.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
			assert.Equal(t, tc.wantLog, rec["msg"])
			if tc.wantIDs {
				assert.Equal(t, sale.SaleID.String(), rec["sale_id"])
				assert.Equal(t, sale.ProductID.String(), rec["product_id"])
			}
		})
	}
}
