package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

// resetFlags restores every flag to a small, fast workload
func resetFlags(t *testing.T) {
	t.Helper()

	verbose = false
	quiet = false
	jsonOut = false
	zoneName = "go"
	workers = 4
	iterations = 500
	seed = 1

	bucketElementSize = 32
	bucketSlots = 16
	bucketHold = 4

	smallBuckets = 4
	smallBucketSize = 1024
	smallMaxSize = 100
	smallHold = 8

	arenaChunkCapacity = 4096
	arenaMaxSize = 256
	arenaClearEvery = 0
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	os.Stdout = w
	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	return buf.String(), fnErr
}

// decodeJSON unmarshals command output into target
func decodeJSON(t *testing.T, output string, target interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), target); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
}
