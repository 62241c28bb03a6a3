package reporting

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteStatesJSON writes rows as an indented JSON array
func WriteStatesJSON(rows []StateRow, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	if rows == nil {
		rows = []StateRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state rows: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
