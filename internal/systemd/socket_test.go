package systemd

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestGetListenersWithoutActivation(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")
	t.Setenv("LISTEN_FDNAMES", "")

	listeners, err := GetListeners()
	if err != nil {
		t.Fatalf("GetListeners() error = %v", err)
	}
	if listeners.Activated {
		t.Error("expected Activated to be false outside systemd")
	}
	if listeners.API != nil || listeners.Metrics != nil {
		t.Error("expected no listeners outside systemd")
	}
}

func TestNotifyWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	if err := NotifyReady(); err != nil {
		t.Errorf("NotifyReady() error = %v", err)
	}
	if err := NotifyStopping(); err != nil {
		t.Errorf("NotifyStopping() error = %v", err)
	}
	if err := NotifyWatchdog(); err != nil {
		t.Errorf("NotifyWatchdog() error = %v", err)
	}
}

func TestRunWatchdogDisabledReturns(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("WATCHDOG_PID", "")

	done := make(chan struct{})
	go func() {
		RunWatchdog(context.Background(), zerolog.Nop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog did not return with the watchdog disabled")
	}
}
