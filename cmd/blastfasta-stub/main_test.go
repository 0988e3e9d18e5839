package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_NoArgsServesOnDefaultAddr(t *testing.T) {
	t.Setenv("BLASTFASTA_LOG_LEVEL", "info")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr lockedBuffer
	done := make(chan int, 1)
	go func() { done <- run(ctx, nil, io.Discard, &stderr) }()

	deadline := time.After(5 * time.Second)
	for !strings.Contains(stderr.String(), "stub search service listening") {
		select {
		case code := <-done:
			out := stderr.String()
			if strings.Contains(out, "address already in use") {
				t.Skipf("default port busy: %s", out)
			}
			t.Fatalf("exited %d before listening:\n%s", code, out)
		case <-deadline:
			t.Fatalf("never listened:\n%s", stderr.String())
		case <-time.After(10 * time.Millisecond):
		}
	}
	if strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("usage printed for empty argv:\n%s", stderr.String())
	}

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit=%d\n%s", code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRun_HelpPrintsUsage(t *testing.T) {
	var stderr lockedBuffer
	if code := run(context.Background(), []string{"-h"}, io.Discard, &stderr); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: blastfasta-stub") {
		t.Fatalf("stderr=%q", stderr.String())
	}
}
