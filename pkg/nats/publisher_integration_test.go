package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/messaging/events"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "INVENTORY_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *PublisherSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.T().Logf("Failed to terminate NATS container: %v", err)
	}
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEnsureStream_Idempotent() {
	// given
	name := "SALES_" + uuid.NewString()[:8]

	// when
	first, err := EnsureStream(s.ctx, s.js, name, "idem."+name+".>")
	s.Require().NoError(err)
	second, err := EnsureStream(s.ctx, s.js, name, "idem."+name+".>")
	s.Require().NoError(err)

	// then
	s.Equal(first.CachedInfo().Config.Name, second.CachedInfo().Config.Name)
	s.Equal([]string{"idem." + name + ".>"}, second.CachedInfo().Config.Subjects)
}

func (s *PublisherSuite) TestPublish_SaleEvents() {
	// given
	stream, err := EnsureStream(s.ctx, s.js, messaging.SalesStream, messaging.SalesSubjects)
	s.Require().NoError(err)
	s.Require().NoError(stream.Purge(s.ctx))

	sale := events.Sale{
		SaleID:    uuid.New(),
		ProductID: uuid.New(),
		Quantity:  2,
		UnitPrice: 4999,
		Total:     9998,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	publisher := NewNatsPublisher(s.js)

	// when
	s.Require().NoError(publisher.Publish(s.ctx, events.SaleRecordedEvent{Sale: sale}))
	s.Require().NoError(publisher.Publish(s.ctx, events.SaleDeletedEvent{Sale: sale}))

	// then
	recorded, err := stream.GetLastMsgForSubject(s.ctx, messaging.SalesRecordedSubject)
	s.Require().NoError(err)
	var got events.SaleRecordedEvent
	s.Require().NoError(json.Unmarshal(recorded.Data, &got))
	s.Equal(sale.SaleID, got.SaleID)
	s.Equal(sale.Total, got.Total)
	s.True(sale.Timestamp.Equal(got.Timestamp))

	deleted, err := stream.GetLastMsgForSubject(s.ctx, messaging.SalesDeletedSubject)
	s.Require().NoError(err)
	s.Equal(messaging.SalesDeletedSubject, deleted.Subject)

	info, err := stream.Info(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), info.State.Msgs)
}

func (s *PublisherSuite) TestPublish_NoStream() {
	// given
	publisher := NewNatsPublisher(s.js)
	event := unroutedEvent{}

	// when
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	err := publisher.Publish(ctx, event)

	// then
	s.Error(err)
}

func (s *PublisherSuite) TestOpenStream() {
	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	s.Require().NoError(err)

	tests := []struct {
		name       string
		stream     string
		wantErr    bool
		wantClosed bool
	}{
		{name: "existing or new stream keeps the connection", stream: "OPEN_STREAM"},
		{name: "invalid stream name closes the connection", stream: "bad.name", wantErr: true, wantClosed: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// given
			nc, err := NewClient(natsURL, 5*time.Second)
			s.Require().NoError(err)
			defer nc.Close()

			// when
			js, err := OpenStream(s.ctx, nc, tt.stream, "open."+uuid.NewString()+".>")

			// then
			if tt.wantErr {
				s.Error(err)
				s.Nil(js)
			} else {
				s.NoError(err)
				s.NotNil(js)
			}
			s.Equal(tt.wantClosed, nc.IsClosed())
		})
	}
}

type unroutedEvent struct{}

func (unroutedEvent) Subject() string          { return "nowhere.nobody" }
func (unroutedEvent) Payload() ([]byte, error) { return []byte("{}"), nil }
