package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          Mutation
		shouldWrite    bool
	}{
		{
			name:        "text - no filter - applied",
			format:      "text",
			input:       Mutation{Variation: "v", Stage: "translation", Status: StatusApplied},
			shouldWrite: true,
		},
		{
			name:           "text - filter SKIPPED - input APPLIED",
			format:         "text",
			filterStatuses: []string{"SKIPPED"},
			input:          Mutation{Variation: "v", Stage: "translation", Status: StatusApplied},
			shouldWrite:    false,
		},
		{
			name:           "text - filter SKIPPED - input SKIPPED",
			format:         "text",
			filterStatuses: []string{"SKIPPED"},
			input:          Mutation{Variation: "v", Stage: "addition", Status: StatusSkipped},
			shouldWrite:    true,
		},
		{
			name:           "text - filter SKIPPED,PLANNED - input PLANNED",
			format:         "text",
			filterStatuses: []string{"SKIPPED", "PLANNED"},
			input:          Mutation{Variation: "v", Stage: "camera", Status: StatusPlanned},
			shouldWrite:    true,
		},
		{
			name:           "json - filter SKIPPED - input APPLIED",
			format:         "json",
			filterStatuses: []string{"SKIPPED"},
			input:          Mutation{Variation: "v", Stage: "translation", Status: StatusApplied},
			shouldWrite:    false,
		},
		{
			name:           "json - filter SKIPPED - input SKIPPED",
			format:         "json",
			filterStatuses: []string{"SKIPPED"},
			input:          Mutation{Variation: "v", Stage: "translation", Status: StatusSkipped},
			shouldWrite:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses)

			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}

			if tt.format == "json" {
				// JSON buffers mutations until Close; check the buffer.
				if tt.shouldWrite && len(sink.mutations) != 1 {
					t.Errorf("expected 1 mutation buffered, got %d", len(sink.mutations))
				}
				if !tt.shouldWrite && len(sink.mutations) != 0 {
					t.Errorf("expected 0 mutations buffered, got %d", len(sink.mutations))
				}
				return
			}

			wroteSomething := buf.Len() > 0
			if tt.shouldWrite && !wroteSomething {
				t.Errorf("expected output, got none")
			}
			if !tt.shouldWrite && wroteSomething {
				t.Errorf("expected no output, got: %q", buf.String())
			}
		})
	}
}

func TestConsoleSink_Filtering_CaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", []string{"skipped"})

	if err := sink.Write(Mutation{Variation: "v", Stage: "s", Status: StatusSkipped}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected output for case-insensitive match, got none")
	}
}

func TestConsoleSink_TextLineFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)

	m := Mutation{
		Variation: "laser_off",
		Stage:     "node_override",
		Target:    "LaserMat/Emission.Strength",
		Status:    StatusApplied,
		Detail:    "set value to 12",
	}
	if err := sink.Write(m); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"APPLIED", "laser_off/node_override", "LaserMat/Emission.Strength", "set value to 12"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q should contain %q", line, want)
		}
	}
}

func TestConsoleSink_TextEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)

	_ = sink.Write(Event{Type: "run.started", Variations: 2})
	_ = sink.Write(Event{Type: "variation.rendered", Variation: "v", Artifact: "out/v.png"})
	_ = sink.Write(Event{Type: "run.finished", Variations: 2, Skipped: 1, ExitCode: 0})
	_ = sink.Write(Event{Type: "warning", Message: "no variations defined"})

	out := buf.String()
	if strings.Contains(out, "run.started") {
		t.Fatalf("run.started should be silent in text mode: %q", out)
	}
	if !strings.Contains(out, "rendered v -> out/v.png") {
		t.Fatalf("missing rendered line: %q", out)
	}
	if !strings.Contains(out, "2 variation(s), 1 mutation(s) skipped") {
		t.Fatalf("missing finished summary: %q", out)
	}
	if !strings.Contains(out, "warning: no variations defined") {
		t.Fatalf("missing warning line: %q", out)
	}
}

func TestConsoleSink_VerboseAddsLifecycleLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	sink.SetVerbose(true)

	_ = sink.Write(Event{Type: "run.started", Variations: 2})
	_ = sink.Write(Event{Type: "variation.started", Variation: "laser_off"})

	out := buf.String()
	if !strings.Contains(out, "run started: 2 variation(s)") {
		t.Fatalf("missing run started line: %q", out)
	}
	if !strings.Contains(out, "starting laser_off") {
		t.Fatalf("missing variation started line: %q", out)
	}
}

func TestConsoleSink_JSONAggregatesOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)

	_ = sink.Write(Event{Type: "run.started"})
	_ = sink.Write(Mutation{Variation: "v", Stage: "translation", Status: StatusApplied})
	_ = sink.Write(Mutation{Variation: "v", Stage: "addition", Status: StatusSkipped})

	if buf.Len() != 0 {
		t.Fatalf("json mode must not write before Close, got %q", buf.String())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	var got []Mutation
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 2 || got[0].Stage != "translation" || got[1].Status != StatusSkipped {
		t.Fatalf("aggregated mutations mismatch: %+v", got)
	}
}

func TestConsoleSink_NDJSONStreamsEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "ndjson", nil)

	_ = sink.Write(Event{Type: "run.started", Variations: 1})
	_ = sink.Write(Mutation{Variation: "v", Stage: "camera", Status: StatusApplied})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"type":"run.started"`) {
		t.Fatalf("first line mismatch: %q", lines[0])
	}
	if !strings.Contains(lines[1], `"type":"mutation"`) || !strings.Contains(lines[1], `"stage":"camera"`) {
		t.Fatalf("mutation line mismatch: %q", lines[1])
	}
}
