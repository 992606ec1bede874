package logger

import "testing"

func TestBufferLoggerCapturesLevels(t *testing.T) {
	log := NewBufferLogger()

	log.Debug("probing %s", "10.0.0.1")
	log.Info("found %d nodes", 3)
	log.Warn("slow cycle")
	log.Error("boom")

	if len(log.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(log.Messages))
	}
	if log.Messages[0].Message != "probing 10.0.0.1" {
		t.Fatalf("unexpected formatted message %q", log.Messages[0].Message)
	}
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if !log.HasLevel(level) {
			t.Fatalf("expected a %s message", level)
		}
	}
	if log.HasLevel("fatal") {
		t.Fatalf("did not expect a fatal message")
	}
}

func TestNoopDiscards(t *testing.T) {
	// Must simply not panic.
	log := Noop()
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
}
