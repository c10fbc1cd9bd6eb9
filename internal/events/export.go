package events

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExportLog writes collected run events to a JSON file so a surrounding
// automation can inspect what a run did.
func ExportLog(events []*Event, path string) error {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event log: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}
