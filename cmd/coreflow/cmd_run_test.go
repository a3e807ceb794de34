package main

import (
	"testing"
	"time"
)

func TestRunCompletesTheLocalEchoScenario(t *testing.T) {
	cmd := cmdRun{Timeout: 3 * time.Second}
	if err := cmd.Execute(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
