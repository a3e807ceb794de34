package main

import "testing"

func TestStatusBuildsAndPrintsClusterDescriptor(t *testing.T) {
	cmd := cmdStatus{SinkParallelism: 3}
	if err := cmd.Execute(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
