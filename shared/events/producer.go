// Package events publishes domain events to Kafka. Publication is
// fire-and-forget: a full queue or a broker failure is logged and the
// request that produced the event proceeds normally.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

const (
	TopicTenantEvents = "tenant-events"
	TopicVoteEvents   = "vote-events"
)

// TenantAssignedEvent records a completed onboarding assignment.
type TenantAssignedEvent struct {
	UserID    uuid.UUID       `json:"user_id"`
	Username  string          `json:"username"`
	CompanyID uuid.UUID       `json:"company_id"`
	Role      models.UserRole `json:"role"`
	Timestamp time.Time       `json:"timestamp"`
}

// VoteCastEvent records a finalized vote.
type VoteCastEvent struct {
	VoteID        uuid.UUID `json:"vote_id"`
	CompetitionID uuid.UUID `json:"competition_id"`
	VoterID       uuid.UUID `json:"voter_id"`
	NomineeID     uuid.UUID `json:"nominee_id"`
	Timestamp     time.Time `json:"timestamp"`
}

type envelope struct {
	topic   string
	key     string
	payload interface{}
}

// Producer writes events through a buffered channel and a background
// worker so handlers never block on the broker.
type Producer struct {
	writer       *kafka.Writer
	eventChan    chan envelope
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewProducer creates a producer against the given broker. A nil producer
// is returned when broker is empty; all its methods are safe no-ops.
func NewProducer(broker string) *Producer {
	if broker == "" {
		return nil
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		eventChan:    make(chan envelope, 256),
		shutdownChan: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.worker()
	return p
}

func (p *Producer) worker() {
	defer p.wg.Done()
	for {
		select {
		case ev := <-p.eventChan:
			p.write(ev)
		case <-p.shutdownChan:
			return
		}
	}
}

func (p *Producer) write(ev envelope) {
	value, err := json.Marshal(ev.payload)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Topic: ev.topic,
		Key:   []byte(ev.key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"topic": ev.topic,
			"error": err,
		}).Error("failed to write event to kafka")
	}
}

func (p *Producer) publish(topic, key string, payload interface{}) {
	if p == nil {
		return
	}
	select {
	case p.eventChan <- envelope{topic: topic, key: key, payload: payload}:
	default:
		logrus.WithField("topic", topic).Warn("event queue full, event dropped")
	}
}

// PublishTenantAssigned queues a tenant-assigned event.
func (p *Producer) PublishTenantAssigned(ev TenantAssignedEvent) {
	p.publish(TopicTenantEvents, ev.CompanyID.String(), ev)
}

// PublishVoteCast queues a vote-cast event.
func (p *Producer) PublishVoteCast(ev VoteCastEvent) {
	p.publish(TopicVoteEvents, ev.CompetitionID.String(), ev)
}

// Close drains the worker and closes the writer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	close(p.shutdownChan)
	p.wg.Wait()
	return p.writer.Close()
}
