package transfer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

// ExportFilename suggests a name for a snapshot file. Purely advisory; the
// import path never inspects filenames.
func ExportFilename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "ryana"
	}
	prefix = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(prefix), " ", "-"))
	return fmt.Sprintf("%s-export-%s.json", prefix, t.Format("20060102-1504"))
}

// WriteSnapshotFile writes an indented JSON snapshot to path.
func WriteSnapshotFile(path string, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("transfer: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("transfer: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile parses a snapshot file. Malformed JSON surfaces as
// ErrValidation; structural checks happen separately in Snapshot.Validate.
func ReadSnapshotFile(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transfer: read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("transfer: parse snapshot: %v: %w", err, apperr.ErrValidation)
	}
	return &snap, nil
}
