package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tagscraper/pkg/logger"
)

// StateSuffix is appended to the target file path to derive the
// checkpoint side file.
const StateSuffix = ".state.json"

// Checkpoint is the minimal durable state needed to resume a run: the
// next page to request and when it was saved.
type Checkpoint struct {
	NextPage int       `json:"next_page"`
	SavedAt  time.Time `json:"saved_at"`
}

// Manager handles checkpoint operations for one target file
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for the given target file.
// The checkpoint lives next to the target at <target>.state.json.
func NewManager(targetPath string) *Manager {
	return &Manager{
		checkpointPath: targetPath + StateSuffix,
		logger:         logger.GetLogger(),
	}
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Load loads an existing checkpoint. A missing file is not an error
// and returns nil.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.NextPage < 1 {
		cp.NextPage = 1
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"next_page": cp.NextPage,
		"saved_at":  cp.SavedAt,
	})

	return &cp, nil
}

// NextPage returns the page a resumed run should request next,
// defaulting to 1 when no checkpoint exists.
func (m *Manager) NextPage() (int, error) {
	cp, err := m.Load()
	if err != nil {
		return 0, err
	}
	if cp == nil {
		return 1, nil
	}
	return cp.NextPage, nil
}

// Save writes the checkpoint to disk atomically. Callers must save
// strictly after the ledger flush for the same page so a kill between
// the two writes can only lose the checkpoint, never reference
// unpersisted records.
func (m *Manager) Save(nextPage int) error {
	cp := Checkpoint{
		NextPage: nextPage,
		SavedAt:  time.Now(),
	}

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"next_page": nextPage,
	})

	return nil
}

// Clear removes the checkpoint file. Removing an absent checkpoint is
// a no-op.
func (m *Manager) Clear() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
