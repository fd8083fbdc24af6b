package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"courtvision/backend/internal/models"
)

// RawData holds the decoded contents of the raw input files
type RawData struct {
	Teams   []models.RawTeam
	Players []models.RawPlayer
	Games   []models.RawGame
}

// EventCount returns the total number of embedded event records
func (r *RawData) EventCount() int {
	total := 0
	for _, p := range r.Players {
		total += len(p.Shots) + len(p.Passes) + len(p.Turnovers)
	}
	return total
}

// LoadRawData reads and decodes teams.json, players.json and games.json
// from dir. A missing directory or file is a configuration error; the
// run must not begin.
func LoadRawData(dir string) (*RawData, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("raw data directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("raw data path is not a directory: %s", dir)
	}

	var raw RawData
	if err := decodeFile(filepath.Join(dir, "teams.json"), &raw.Teams); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "players.json"), &raw.Players); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "games.json"), &raw.Games); err != nil {
		return nil, err
	}

	return &raw, nil
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("required file not found: %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
