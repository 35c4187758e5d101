package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func TestBusNotifierPublishesEvents(t *testing.T) {
	pub := &capturePublisher{}
	n := NewBusNotifier(pub, nil)
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ctx := context.Background()
	n.SendDelayNotification(ctx, 10, "USB Dongle")
	n.SendOutOfStockNotification(ctx, "Grapes")
	n.SendExpirationNotification(ctx, "Milk", expiry)

	if len(pub.events) != 3 {
		t.Fatalf("events = %d, want 3", len(pub.events))
	}
	delay := pub.events[0].(domnotification.DelayNotificationEvent)
	if delay.LeadTimeDays != 10 || delay.ProductName != "USB Dongle" || delay.EventID == "" {
		t.Fatalf("delay event = %+v", delay)
	}
	if pub.events[1].EventName() != "notification.out_of_stock" {
		t.Fatalf("second event = %s", pub.events[1].EventName())
	}
	exp := pub.events[2].(domnotification.ExpirationNotificationEvent)
	if !exp.ExpiryDate.Equal(expiry) {
		t.Fatalf("expiry = %v, want %v", exp.ExpiryDate, expiry)
	}
	if delay.EventID == exp.EventID {
		t.Fatal("event ids must be unique")
	}
}

func TestBusNotifierSwallowsPublishErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pub := &capturePublisher{err: errors.New("bus stopped")}
	n := NewBusNotifier(pub, nil)
	n.log = zaplogger.New(zap.New(core))

	n.SendOutOfStockNotification(context.Background(), "Grapes")

	if logs.FilterMessage("notification_publish_failed").Len() != 1 {
		t.Fatal("expected the publish failure to be logged")
	}
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zaplogger.New(zap.New(core)))

	msg := domnotification.NewDelayNotificationEvent("evt-1", 10, "USB Dongle").Message()
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	entries := logs.FilterMessage("notification_sent").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != "delay" || fields["lead_time_days"] != int64(10) || fields["sink"] != "log" {
		t.Fatalf("fields = %v", fields)
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessage(_ context.Context, msg kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msg)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSenderEncodesMessage(t *testing.T) {
	w := &fakeWriter{}
	s := NewKafkaSender(w)
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	msg := domnotification.NewExpirationNotificationEvent("evt-9", "Milk", expiry).Message()
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("records = %d, want 1", len(w.msgs))
	}
	rec := w.msgs[0]
	if string(rec.Key) != "Milk" {
		t.Fatalf("key = %q", rec.Key)
	}

	var decoded domnotification.Message
	if err := json.Unmarshal(rec.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != domnotification.KindExpiration || decoded.ExpiryDate == nil || !decoded.ExpiryDate.Equal(expiry) {
		t.Fatalf("decoded = %+v", decoded)
	}

	if err := s.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v, closed=%v", err, w.closed)
	}
}

func TestKafkaSenderWrapsWriteError(t *testing.T) {
	writeErr := errors.New("leader not available")
	s := NewKafkaSender(&fakeWriter{err: writeErr})

	err := s.Send(context.Background(), domnotification.NewOutOfStockNotificationEvent("evt-2", "Grapes").Message())
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestNewKafkaWriterRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaWriter(nil, "notifications", "svc", nil); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}
