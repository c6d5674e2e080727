package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/socratic-labs/tutor/core/protocol"
)

type exportDocument struct {
	SessionID string          `json:"session_id"`
	Turns     []protocol.Turn `json:"turns"`
}

// Export writes a session's full history to path as indented JSON. The file
// appears atomically: content is written to a temp file in the target
// directory and renamed into place.
func Export(ctx context.Context, s Store, sessionID, path string) error {
	turns, err := s.LoadHistory(ctx, sessionID, 0)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	data, err := json.MarshalIndent(exportDocument{SessionID: sessionID, Turns: turns}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-export-*")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize export file: %w", err)
	}
	return nil
}
