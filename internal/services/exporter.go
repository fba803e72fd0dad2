package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// SessionExporter writes the durable session record produced on rotation to
// a per-invocation JSON file.
type SessionExporter struct {
	dir string
}

func NewSessionExporter(dir string) *SessionExporter {
	if err := os.MkdirAll(dir, 0755); err != nil {
		// Log but don't fail - the write itself will surface the problem.
		log.Printf("Session exporter: could not create export directory: %v", err)
	}
	return &SessionExporter{dir: dir}
}

// Export writes the session record and returns it with the file path.
func (e *SessionExporter) Export(state models.SessionState) (models.SessionExport, string, error) {
	export := state.Export()

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return export, "", fmt.Errorf("failed to encode session record: %w", err)
	}

	name := fmt.Sprintf("session_%s_%s.json", time.Now().Format("2006-01-02_15-04-05"), uuid.New().String()[:8])
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return export, "", fmt.Errorf("failed to write session record: %w", err)
	}

	log.Printf("Session exporter: wrote %s", path)
	return export, path, nil
}
