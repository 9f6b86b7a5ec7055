// internal/saves/saves.go
//
// On-disk save/resume of an in-progress game.
// One save slot per user: the whole session (including the raw roll
// history) is written as a JSON file, and resuming re-derives scores from
// the rolls via the scoring package. Reads are tolerant: a missing or
// corrupt file simply means "no save".
//
// Environment variables:
//   SAVE_DIR=/path/to/saves   (default: ~/.solitaire-server/saves)

package saves

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redmagesol/solitaire-server/internal/game"
)

// Dir returns the save directory, creating nothing.
func Dir() string {
	if v := os.Getenv("SAVE_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".solitaire-server", "saves")
}

func path(owner string) string {
	return filepath.Join(Dir(), fmt.Sprintf("bowling_%s.json", owner))
}

// Write persists the saved game for owner, creating the directory if
// needed.
func Write(owner string, s game.SavedGame) error {
	p := path(owner)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Read loads owner's saved game. The second return is false when no
// usable save exists; a malformed file is treated the same as a missing
// one.
func Read(owner string) (game.SavedGame, bool) {
	var s game.SavedGame
	data, err := os.ReadFile(path(owner))
	if err != nil {
		return s, false
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false
	}
	return s, true
}

// Has reports whether owner has a resumable (not completed) save.
func Has(owner string) bool {
	s, ok := Read(owner)
	return ok && !s.Completed
}

// Delete removes owner's save file; missing files are fine.
func Delete(owner string) error {
	err := os.Remove(path(owner))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
