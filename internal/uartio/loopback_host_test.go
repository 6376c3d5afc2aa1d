//go:build !tinygo

package uartio

import (
	"context"
	"testing"
	"time"
)

func TestLoopbackPairDeliversAcrossSides(t *testing.T) {
	agentSide, gatewaySide := NewLoopbackPair()

	if _, err := gatewaySide.Write([]byte("LOAD module_id=m1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	buf := make([]byte, 64)
	n, err := agentSide.RecvSomeContext(ctx, buf)
	if err != nil {
		t.Fatalf("RecvSomeContext: %v", err)
	}
	if string(buf[:n]) != "LOAD module_id=m1\n" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestLoopbackRecvSomeContextReturnsImmediatelyWhenBuffered(t *testing.T) {
	agentSide, gatewaySide := NewLoopbackPair()
	_, _ = gatewaySide.Write([]byte("STATUS\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	buf := make([]byte, 64)
	n, err := agentSide.RecvSomeContext(ctx, buf)
	if err != nil {
		t.Fatalf("RecvSomeContext: %v", err)
	}
	if string(buf[:n]) != "STATUS\n" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestLoopbackRecvSomeContextHonoursCancellation(t *testing.T) {
	agentSide, _ := NewLoopbackPair()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	buf := make([]byte, 16)
	if _, err := agentSide.RecvSomeContext(ctx, buf); err == nil {
		t.Fatal("expected context deadline error")
	}
}
