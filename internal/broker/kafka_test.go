package appkafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"example.com/murmurfeed/internal/models"
)

func TestPublishEvent_KeyedByKind(t *testing.T) {
	mockKafka := &MockKafka{}

	ev := models.Event{
		ID:        "e1",
		Kind:      models.EventFollowCreated,
		ActorID:   "a",
		SubjectID: "b",
		Created:   time.Now().UTC(),
	}

	if err := PublishEvent(mockKafka, ev); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(mockKafka.WrittenMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mockKafka.WrittenMessages))
	}

	msg := mockKafka.WrittenMessages[0]
	if string(msg.Key) != string(models.EventFollowCreated) {
		t.Fatalf("expected key %q, got %q", models.EventFollowCreated, msg.Key)
	}

	var got models.Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.ID != ev.ID || got.Kind != ev.Kind || got.ActorID != ev.ActorID || got.SubjectID != ev.SubjectID {
		t.Fatalf("event round-trip mismatch, got: %+v", got)
	}
}

func TestPublishEvent_WriterFailure(t *testing.T) {
	mockKafka := &MockKafkaFail{}

	err := PublishEvent(mockKafka, models.Event{ID: "e1", Kind: models.EventLikeCreated})
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestMockKafka_ReadBackWritten(t *testing.T) {
	mockKafka := &MockKafka{}

	ev := models.Event{ID: "e1", Kind: models.EventMurmurCreated, ActorID: "a", MurmurID: "m1"}
	if err := PublishEvent(mockKafka, ev); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := mockKafka.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got models.Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.MurmurID != "m1" {
		t.Fatalf("expected murmur m1, got: %+v", got)
	}
}
