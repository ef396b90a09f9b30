package control

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignalExportTriggerCoalescesWhilePending(t *testing.T) {
	p := New(4)
	if !p.SignalExportTrigger() {
		t.Fatalf("expected first signal to be raised")
	}
	if p.SignalExportTrigger() {
		t.Fatalf("expected second signal to coalesce while first is pending")
	}
	// drain and clear, then a new signal should be allowed again
	<-p.Messages()
	p.ClearTriggerPending()
	if !p.SignalExportTrigger() {
		t.Fatalf("expected signal after clearing pending flag")
	}
}

func TestFlushTimesOutWhenWorkerNeverReplies(t *testing.T) {
	p := New(4)
	go func() { <-p.Messages() }() // consume but never reply

	err := p.Flush(context.Background(), 20*time.Millisecond)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestFlushSucceedsWhenWorkerReplies(t *testing.T) {
	p := New(4)
	go func() {
		msg := <-p.Messages()
		msg.Reply <- Result{}
	}()

	if err := p.Flush(context.Background(), time.Second); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestHandshakeReturnsChannelFullWhenSaturated(t *testing.T) {
	p := New(1)
	// Fill the one slot with an unreplied-to message.
	p.ch <- Message{Kind: KindFlush, Reply: make(chan Result, 1)}

	err := p.Shutdown(context.Background(), time.Second)
	if !errors.Is(err, ErrChannelFull) {
		t.Fatalf("expected ErrChannelFull, got %v", err)
	}
}

func TestHandshakeAfterMarkClosedReturnsAlreadyShutdown(t *testing.T) {
	p := New(4)
	p.MarkClosed()
	if err := p.Flush(context.Background(), time.Second); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("expected ErrAlreadyShutdown, got %v", err)
	}
	if err := p.Shutdown(context.Background(), time.Second); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("expected ErrAlreadyShutdown, got %v", err)
	}
}

func TestSetResourceDropsSilentlyWhenFull(t *testing.T) {
	p := New(1)
	p.ch <- Message{Kind: KindFlush, Reply: make(chan Result, 1)}
	if p.SetResource(nil) {
		t.Fatalf("expected SetResource to report undelivered when channel full")
	}
}
