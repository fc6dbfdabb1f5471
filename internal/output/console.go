package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var statusColors = map[Status]*color.Color{
	StatusApplied: color.New(color.FgGreen),
	StatusSkipped: color.New(color.FgYellow),
	StatusPlanned: color.New(color.FgCyan),
}

// ConsoleSink is the human-facing sink. Text mode prints one colored line
// per mutation; json aggregates mutations; ndjson streams lifecycle events.
type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	verbose         bool
	mu              sync.Mutex
	mutations       []Mutation // for JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

// SetVerbose makes text mode print run and variation lifecycle lines; other
// formats already stream the full event set.
func (s *ConsoleSink) SetVerbose(verbose bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verbose = verbose
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	if len(s.allowedStatuses) > 0 {
		if m, ok := v.(Mutation); ok {
			if !s.allowedStatuses[string(m.Status)] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		m, ok := v.(Mutation)
		if !ok {
			// Ignore lifecycle events in JSON console mode.
			return nil
		}
		s.mutations = append(s.mutations, m)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case Mutation:
			if err := encoder.Encode(eventFromMutation(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		switch t := v.(type) {
		case Mutation:
			status := string(t.Status)
			if c, ok := statusColors[t.Status]; ok {
				status = c.Sprint(status)
			}
			line := fmt.Sprintf("[%s] %s/%s", status, t.Variation, t.Stage)
			if t.Target != "" {
				line += ": " + t.Target
			}
			if t.Detail != "" {
				line += " - " + t.Detail
			}
			if _, err := fmt.Fprintln(s.writer, line); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case Event:
			// Only the run-level events are interesting in text mode; the
			// per-mutation lines already carry the variation name.
			switch t.Type {
			case "run.started":
				if !s.verbose {
					return nil
				}
				_, err := fmt.Fprintf(s.writer, "run started: %d variation(s)\n", t.Variations)
				return err
			case "variation.started":
				if !s.verbose {
					return nil
				}
				_, err := fmt.Fprintf(s.writer, "starting %s\n", t.Variation)
				return err
			case "variation.rendered":
				_, err := fmt.Fprintf(s.writer, "rendered %s -> %s\n", t.Variation, t.Artifact)
				return err
			case "run.finished":
				if t.Skipped > 0 {
					_, err := fmt.Fprintf(s.writer, "done: %d variation(s), %d mutation(s) skipped\n",
						t.Variations, t.Skipped)
					return err
				}
				_, err := fmt.Fprintf(s.writer, "done: %d variation(s)\n", t.Variations)
				return err
			case "warning":
				_, err := fmt.Fprintf(s.writer, "warning: %s\n", t.Message)
				return err
			}
			return nil
		default:
			return nil
		}
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.mutations); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
