package main

import (
	"context"
	"errors"
	"testing"
)

type orderedServer struct {
	janitorCtx    context.Context
	janitorActive bool
	err           error
}

func (s *orderedServer) Shutdown(context.Context) error {
	s.janitorActive = s.janitorCtx.Err() == nil
	return s.err
}

func TestDrainStopsJanitorAfterServer(t *testing.T) {
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	done := make(chan struct{})
	flushed := false
	go func() {
		defer close(done)
		<-janitorCtx.Done()
		flushed = true
	}()

	server := &orderedServer{janitorCtx: janitorCtx, err: errors.New("deadline")}
	err := drain(context.Background(), server, stopJanitor, done)
	if err == nil || err.Error() != "deadline" {
		t.Fatalf("expected the shutdown error back, got %v", err)
	}
	if !server.janitorActive {
		t.Fatal("janitor was stopped before the server finished draining")
	}
	if !flushed {
		t.Fatal("drain returned before the janitor finished")
	}
}

func TestCartSweepInterval(t *testing.T) {
	if got := cartSweepInterval(0); got <= 0 {
		t.Fatalf("expected a positive default interval, got %v", got)
	}
}
