package systemd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifier_Messages(t *testing.T) {
	var got []string
	n := NewNotifier(testLogger())
	n.notify = func(_ bool, state string) (bool, error) {
		got = append(got, state)
		return true, nil
	}

	n.Ready()
	n.Reloading()
	n.Status("light on")
	n.Stopping()

	want := []string{"READY=1", "RELOADING=1", "STATUS=light on", "STOPPING=1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNotifier_ErrorIsLoggedNotReturned(_ *testing.T) {
	n := NewNotifier(testLogger())
	n.notify = func(bool, string) (bool, error) {
		return false, errors.New("socket gone")
	}
	n.Ready()
}

func TestNotifier_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	NewNotifier(testLogger()).Ready()
}

func TestNotifier_UnixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("unixgram not available: %v", err)
	}
	defer conn.Close()
	t.Setenv("NOTIFY_SOCKET", path)

	NewNotifier(testLogger()).Ready()

	buf := make([]byte, 64)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	nr, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:nr]) != "READY=1" {
		t.Errorf("received %q, want READY=1", buf[:nr])
	}
}

func TestWatchdog_DisabledReturns(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	done := make(chan struct{})
	go func() {
		NewNotifier(testLogger()).Watchdog(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog should return when not enabled")
	}
}

func TestWatchdog_PingsUntilCancelled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "20000")
	t.Setenv("WATCHDOG_PID", "")

	pings := make(chan string, 16)
	n := NewNotifier(testLogger())
	n.notify = func(_ bool, state string) (bool, error) {
		select {
		case pings <- state:
		default:
		}
		return true, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Watchdog(ctx)
		close(done)
	}()

	select {
	case state := <-pings:
		if state != "WATCHDOG=1" {
			t.Errorf("ping = %q, want WATCHDOG=1", state)
		}
	case <-time.After(time.Second):
		t.Fatal("no watchdog ping")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog did not stop after cancel")
	}
}
