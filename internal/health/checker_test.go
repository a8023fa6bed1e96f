package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func TestChecker_degradesAtThreshold(t *testing.T) {
	p := &fakePinger{err: errors.New("connection refused")}
	c := New(p, Config{FailThreshold: 3, CheckInterval: time.Minute}, zap.NewNop())

	for i := 0; i < 2; i++ {
		c.Check(context.Background())
		if c.Degraded() {
			t.Fatalf("degraded after %d failures, threshold is 3", i+1)
		}
	}
	c.Check(context.Background())
	if !c.Degraded() {
		t.Fatal("not degraded at threshold")
	}
}

func TestChecker_recovers(t *testing.T) {
	p := &fakePinger{err: errors.New("connection refused")}
	c := New(p, Config{FailThreshold: 1, CheckInterval: time.Minute}, zap.NewNop())

	c.Check(context.Background())
	if !c.Degraded() {
		t.Fatal("not degraded")
	}

	p.err = nil
	c.Check(context.Background())
	if c.Degraded() {
		t.Fatal("still degraded after successful probe")
	}
}
