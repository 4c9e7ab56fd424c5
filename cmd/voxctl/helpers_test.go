package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// decodeJSON unmarshals output into v or fails the test
func decodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
}

// resetFlags restores global flags between tests
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	for _, f := range []*sceneFlags{&buildScene, &updateScene, &statsScene} {
		*f = sceneFlags{
			shape:    "sphere",
			size:     32,
			value:    1,
			region:   1 << 24,
			minAlloc: 4 << 10,
			strategy: "overlap",
			coalesce: "cascade",
		}
	}
	buildFlush, buildOut = false, ""
	updateAt, updateSize, updateValue, updateGC, updateFlush = "0,0,0", 4, 2, false, false
	statsStrategies = "exact,overlap,substring,bruteforce"
}
