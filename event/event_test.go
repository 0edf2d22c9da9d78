package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/datascope"
	"github.com/aisgo/ais-datascope/mq"
)

// capturingProducer 记录发出的消息
type capturingProducer struct {
	sent []*mq.Message
}

func (p *capturingProducer) SendSync(ctx context.Context, msg *mq.Message) (*mq.SendResult, error) {
	p.sent = append(p.sent, msg)
	return &mq.SendResult{MsgID: "sync"}, nil
}

func (p *capturingProducer) SendAsync(ctx context.Context, msg *mq.Message, callback mq.SendCallback) error {
	p.sent = append(p.sent, msg)
	if callback != nil {
		callback(&mq.SendResult{MsgID: "async"}, nil)
	}
	return nil
}

func (p *capturingProducer) Close() error { return nil }

func TestPublisherPublish(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, "", zap.NewNop())

	ev := ScopeChangeEvent{
		Resources: []string{"sys:user", "sys:order"},
		RoleID:    7,
		Reason:    ReasonAssignmentChanged,
	}
	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(producer.sent) != 1 {
		t.Fatalf("expected 1 message, got: %d", len(producer.sent))
	}

	msg := producer.sent[0]
	if msg.Topic != DefaultTopic {
		t.Fatalf("unexpected topic: %q", msg.Topic)
	}
	if msg.Key != "sys:user" {
		t.Fatalf("unexpected key: %q", msg.Key)
	}

	var decoded ScopeChangeEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.RoleID != 7 || decoded.Reason != ReasonAssignmentChanged {
		t.Fatalf("unexpected event: %+v", decoded)
	}
	if decoded.At.IsZero() {
		t.Fatalf("expected At to be stamped")
	}
	if len(decoded.EventID) != 26 {
		t.Fatalf("expected ULID event id, got: %q", decoded.EventID)
	}
}

func TestNotifyScopeChangeSkipsEmptyResources(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, "changes", zap.NewNop())
	pub.NotifyScopeChange(context.Background(), 1, nil, ReasonConfigUpdated)
	if len(producer.sent) != 0 {
		t.Fatalf("expected no message for empty resources")
	}
}

func mustBody(t *testing.T, ev ScopeChangeEvent) []byte {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func TestInvalidatorHandle(t *testing.T) {
	cache := datascope.NewMemoryCache(time.Minute)
	ctx := context.Background()
	for _, resource := range []string{"sys:user", "sys:order"} {
		if err := cache.Put(ctx, resource, []datascope.RoleScopeConfig{{RoleID: 1}}); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}

	inv := NewInvalidator(cache, zap.NewNop())
	msgs := []*mq.ConsumedMessage{
		{MsgID: "1", Body: []byte("not json")},
		{MsgID: "2", Body: mustBody(t, ScopeChangeEvent{Reason: ReasonConfigUpdated})},
		{MsgID: "3", Body: mustBody(t, ScopeChangeEvent{
			Resources: []string{"sys:user"},
			Reason:    ReasonConfigUpdated,
			At:        time.Now(),
		})},
	}

	result, err := inv.Handle(ctx, msgs)
	if err != nil || result != mq.ConsumeSuccess {
		t.Fatalf("unexpected result: %v, %v", result, err)
	}

	if _, hit, _ := cache.Get(ctx, "sys:user"); hit {
		t.Fatalf("expected sys:user to be invalidated")
	}
	if _, hit, _ := cache.Get(ctx, "sys:order"); !hit {
		t.Fatalf("expected sys:order to survive")
	}
}

// failingCache 失效操作失败
type failingCache struct{ datascope.ConfigCache }

func (failingCache) Invalidate(context.Context, ...string) error {
	return errors.New("redis down")
}

func TestInvalidatorRetriesOnCacheFailure(t *testing.T) {
	inv := NewInvalidator(failingCache{}, zap.NewNop())
	msgs := []*mq.ConsumedMessage{
		{MsgID: "1", Body: mustBody(t, ScopeChangeEvent{
			Resources: []string{"sys:user"},
			Reason:    ReasonConfigDeleted,
		})},
	}
	result, err := inv.Handle(context.Background(), msgs)
	if err == nil || result != mq.ConsumeRetryLater {
		t.Fatalf("expected retry on cache failure, got: %v, %v", result, err)
	}
}
