package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// EventsCSV exports raw ledger events as CSV for external analysis.
type EventsCSV struct {
	analytics Analytics
}

// NewEventsCSV creates a new CSV exporter.
func NewEventsCSV(a Analytics) *EventsCSV {
	return &EventsCSV{analytics: a}
}

// Generate writes the events matching filter as CSV.
func (r *EventsCSV) Generate(filter analytics.Filter) (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"id", "timestamp", "kind", "prompt_ref", "project_ref", "meta"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, ev := range r.analytics.Events(filter) {
		meta := ""
		if len(ev.Meta) > 0 {
			raw, err := json.Marshal(ev.Meta)
			if err != nil {
				return nil, fmt.Errorf("failed to encode metadata: %w", err)
			}
			meta = string(raw)
		}
		row := []string{
			strconv.FormatInt(ev.ID, 10),
			ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			string(ev.Kind),
			ev.PromptRef,
			ev.ProjectRef,
			meta,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}
