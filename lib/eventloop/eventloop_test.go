package eventloop

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/uos-cooperation/daemon/lib/buffer"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop, cancel
}

func TestTimerOneshot(t *testing.T) {
	loop, _ := runLoop(t)
	fired := make(chan struct{})
	timer := NewTimer(loop, func() { close(fired) })
	timer.Oneshot(10 * time.Millisecond)
	t.Cleanup(timer.Close)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerStopPreventsCallback(t *testing.T) {
	loop, _ := runLoop(t)
	fired := make(chan struct{}, 1)
	timer := NewTimer(loop, func() { fired <- struct{}{} })
	timer.Oneshot(20 * time.Millisecond)
	timer.Stop()
	t.Cleanup(timer.Close)

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestAsyncWake(t *testing.T) {
	loop, _ := runLoop(t)
	async := NewAsync(loop)
	defer async.Close()

	done := make(chan int, 1)
	go func() {
		async.Wake(func() { done <- 1 })
	}()

	select {
	case v := <-done:
		if v != 1 {
			t.Fatalf("unexpected value %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("wake never ran")
	}
}

func TestStreamRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	loop, _ := runLoop(t)
	stream := NewStream(loop)

	received := make(chan []byte, 1)
	connected := make(chan struct{}, 1)
	stream.OnConnected(func() {
		stream.StartRead()
		connected <- struct{}{}
	})
	stream.OnReceived(func(buf *buffer.Buffer) {
		data, ok := buf.Peek(buf.Size())
		if ok {
			received <- data
		}
	})

	stream.Connect(ln.Addr().String())

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("never connected")
	}

	serverConn := <-accepted
	defer serverConn.Close()

	if _, err := serverConn.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-received:
		if string(data) != "hello" {
			t.Fatalf("unexpected payload %q", data)
		}
	case <-time.After(time.Second):
		t.Fatal("never received")
	}

	stream.Close()
}
