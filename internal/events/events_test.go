package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/segmentio/kafka-go"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, events ...Event) error {
	r.events = append(r.events, events...)
	return r.err
}

func (r *recorder) Close() error { return nil }

func TestNew(t *testing.T) {
	c := qt.New(t)

	e, err := New(OrderCreated, "store-1", map[string]string{"order_number": "ORD-20260101-AB12"})
	c.Assert(err, qt.IsNil)
	c.Assert(e.Type, qt.Equals, OrderCreated)
	c.Assert(e.Key, qt.Equals, "store-1")
	c.Assert(e.OccurredAt.IsZero(), qt.IsFalse)

	var payload map[string]string
	c.Assert(json.Unmarshal(e.Payload, &payload), qt.IsNil)
	c.Assert(payload["order_number"], qt.Equals, "ORD-20260101-AB12")
}

func TestNewRejectsUnmarshallablePayload(t *testing.T) {
	c := qt.New(t)

	_, err := New(OrderCreated, "k", make(chan int))
	c.Assert(err, qt.ErrorMatches, "marshal order.created payload: .*")
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	c := qt.New(t)

	r := &recorder{err: errors.New("broker down")}
	Emit(context.Background(), r, StoreCreated, "s", map[string]string{"slug": "acme"})
	c.Assert(r.events, qt.HasLen, 1)
	c.Assert(r.events[0].Type, qt.Equals, StoreCreated)
}

func TestNopPublisher(t *testing.T) {
	c := qt.New(t)

	var p Publisher = NopPublisher{}
	c.Assert(p.Publish(context.Background(), Event{}), qt.IsNil)
	c.Assert(p.Close(), qt.IsNil)
}

type stalledPublisher struct {
	hadDeadline bool
}

func (s *stalledPublisher) Publish(ctx context.Context, _ ...Event) error {
	_, s.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (s *stalledPublisher) Close() error { return nil }

func TestEmitBoundsStalledBroker(t *testing.T) {
	c := qt.New(t)

	p := &stalledPublisher{}
	start := time.Now()
	Emit(context.Background(), p, OrderCreated, "s", map[string]string{"order_number": "ORD-1"})
	c.Assert(p.hadDeadline, qt.IsTrue)
	c.Assert(time.Since(start) < PublishTimeout+time.Second, qt.IsTrue)
}

func TestKafkaPublisherHashesByKey(t *testing.T) {
	c := qt.New(t)

	p := NewKafkaPublisher([]string{"localhost:9092"}, "souq.events")
	defer p.Close()
	_, ok := p.writer.Balancer.(*kafka.Hash)
	c.Assert(ok, qt.IsTrue)
}
