package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/omakasem/draftstream/types"
)

func testUpdate() *types.SessionUpdate {
	return &types.SessionUpdate{
		SessionID:        "s-001",
		PlannerSessionID: "planner-001",
		Status:           types.StatusReady,
		Draft: &types.CoursePlan{
			Title: "Go 입문",
			Epics: []types.Epic{{EpicID: "epic_0", WeekNumber: 1, Title: "기초 문법", Stories: []types.Story{}}},
		},
	}
}

// asyncReceive starts a goroutine that reads one message from the subscriber
// and sends it to the returned channel. Must be called BEFORE UpdateSession
// to avoid deadlocking miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{}
	}
}

func TestUpdateSession_StoresAndNotifies(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultChannel)
	ch := asyncReceive(sub)

	if err := a.UpdateSession(t.Context(), testUpdate()); err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, err := mr.Get(DefaultKeyPrefix + "s-001")
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	var stored types.SessionUpdate
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stored.PlannerSessionID != "planner-001" || stored.Draft.Title != "Go 입문" {
		t.Errorf("unexpected document: %+v", stored)
	}

	msg := waitMessage(t, ch)
	var note Notification
	if err := json.Unmarshal([]byte(msg.Message), &note); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if note.SessionID != "s-001" || note.Status != types.StatusReady || note.Key != a.Key("s-001") {
		t.Errorf("unexpected notification: %+v", note)
	}
}

func TestUpdateSession_Idempotent(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), KeyPrefix: "test:"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	first := testUpdate()
	second := testUpdate()
	second.Status = types.StatusEnriched

	for _, u := range []*types.SessionUpdate{first, first, second} {
		if err := a.UpdateSession(t.Context(), u); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "test:s-001" {
		t.Fatalf("expected one key, got %v", keys)
	}
	got, err := a.Get(t.Context(), "s-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.StatusEnriched {
		t.Errorf("expected last write to win, got %s", got.Status)
	}
}

func TestUpdateSession_TTL(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), TTL: time.Hour})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.UpdateSession(t.Context(), testUpdate()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ttl := mr.TTL(a.Key("s-001")); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
}

func TestUpdateSession_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	customChannel := "custom:sessions"
	a, err := New(Config{URL: "redis://" + mr.Addr(), Channel: customChannel})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(customChannel)
	ch := asyncReceive(sub)

	if err := a.UpdateSession(t.Context(), testUpdate()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if msg := waitMessage(t, ch); msg.Channel != customChannel {
		t.Errorf("expected channel %q, got %q", customChannel, msg.Channel)
	}
}

func TestUpdateSession_RequiresSessionID(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.UpdateSession(t.Context(), &types.SessionUpdate{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestUpdateSession_ExhaustsRetries(t *testing.T) {
	a, err := New(Config{URL: "redis://127.0.0.1:1", Retries: 2, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.UpdateSession(t.Context(), testUpdate()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestUpdateSession_ContextCanceled(t *testing.T) {
	a, err := New(Config{URL: "redis://127.0.0.1:1", Retries: 5, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if err := a.UpdateSession(ctx, testUpdate()); err == nil {
		t.Fatal("expected error on canceled context")
	}
}

func TestNew_Validation(t *testing.T) {
	cases := []Config{
		{},
		{URL: "not-a-redis-url"},
		{URL: "redis://localhost:6379", Retries: -1},
		{URL: "redis://localhost:6379", TTL: -time.Second},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestNew_DefaultsApplied(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.config.Channel != DefaultChannel || a.config.KeyPrefix != DefaultKeyPrefix {
		t.Errorf("unexpected defaults: %+v", a.config)
	}
	if a.config.Timeout != DefaultTimeout || a.config.Retries != 0 {
		t.Errorf("unexpected defaults: %+v", a.config)
	}
}

func TestClose_ClosesConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.UpdateSession(t.Context(), testUpdate()); err == nil {
		t.Fatal("expected error after close")
	}
}
