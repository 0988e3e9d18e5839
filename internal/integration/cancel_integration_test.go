package integration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"blastfasta/internal/app"
	"blastfasta/internal/search/searchstub"
)

func TestCtrlC_MidRun_Exit130(t *testing.T) {
	// Jobs never finish, so the run is still polling when the cancel lands.
	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, ">s%d\nMKTAYIAKQR\n", i)
	}
	fa := write(t, "cancel.fa", b.String())

	argv := []string{
		"--endpoint", stub(t, searchstub.Options{Delay: time.Hour}),
		"--poll-interval", "5ms",
		"--queue-capacity", "8",
		"--max-workers", "4",
		"-o", "-", "-q", "--log-level", "off",
		fa,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan int, 1)
	go func() { done <- app.RunContext(ctx, argv, io.Discard, io.Discard) }()
	select {
	case code := <-done:
		if code != 130 {
			t.Fatalf("expected exit 130 on cancel, got %d", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
