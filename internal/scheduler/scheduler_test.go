package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestContractReconcilePayloadRoundtrip(t *testing.T) {
	want := ContractReconcilePayload{
		ContractID: uuid.New().String(),
		FailedStep: "award_project",
	}

	task, err := NewContractReconcileTask(want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskContractReconcile {
		t.Fatalf("expected task type %q, got %q", TaskContractReconcile, task.Type())
	}

	got, err := ParseContractReconcilePayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("payload roundtrip mismatch: got %+v, want %+v", got, want)
	}
}

func TestRedisClientOpt_ParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" {
		t.Fatalf("expected addr localhost:6380, got %q", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Fatalf("expected password to be parsed, got %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Fatalf("expected db 2, got %d", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS config for redis:// URL")
	}
}

func TestRedisClientOpt_InsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://localhost:6379", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}

func TestRedisClientOpt_ConnectsToServer(t *testing.T) {
	mr := miniredis.RunT(t)

	opt, err := redisClientOpt("redis://"+mr.Addr(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to ping test redis: %v", err)
	}
}
