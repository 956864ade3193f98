package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	eventsDir  = ".jervis"
	eventsFile = "events.jsonl"
)

// ObserveEnabled reports whether JSONL emission is enabled. The
// environment is read per call, so toggling JRV_OBSERVE_JSON mid-run
// (or via t.Setenv) takes effect immediately.
func ObserveEnabled() bool {
	return os.Getenv("JRV_OBSERVE_JSON") == "1"
}

// Emit writes a single JSON line to .jervis/events.jsonl when
// JRV_OBSERVE_JSON=1. It augments fields with RFC3339Nano time and the
// event name. Emission failures go to stderr and never affect the
// conversation.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	if err := os.MkdirAll(eventsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", eventsDir, err)
		return
	}

	path := filepath.Join(eventsDir, eventsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
		return
	}
}
