package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTeamsJSON = `[{"team_id": 100, "name": "Hawks"}]`

const testPlayersJSON = `[
	{
		"player_id": 7,
		"name": "Test Player",
		"team_id": 100,
		"shots": [
			{"id": 1, "game_id": 500, "action_type": "pick_and_roll", "shot_loc_x": 5.0, "shot_loc_y": 3.0, "points": 2}
		],
		"passes": [
			{"id": 2, "game_id": 500, "action_type": "isolation", "ball_start_loc_x": 1.0, "ball_start_loc_y": 2.0}
		],
		"turnovers": []
	}
]`

const testGamesJSON = `[{"id": 500, "date": "2024-01-15"}]`

func writeRawDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadRawData(t *testing.T) {
	dir := writeRawDir(t, map[string]string{
		"teams.json":   testTeamsJSON,
		"players.json": testPlayersJSON,
		"games.json":   testGamesJSON,
	})

	raw, err := LoadRawData(dir)
	require.NoError(t, err)

	require.Len(t, raw.Teams, 1)
	assert.Equal(t, 100, raw.Teams[0].TeamID)
	assert.Equal(t, "Hawks", raw.Teams[0].Name)

	require.Len(t, raw.Players, 1)
	player := raw.Players[0]
	assert.Equal(t, 7, player.PlayerID)
	require.Len(t, player.Shots, 1)
	require.Len(t, player.Passes, 1)
	assert.Empty(t, player.Turnovers)

	require.NotNil(t, player.Shots[0].ID)
	assert.Equal(t, 1, *player.Shots[0].ID)
	assert.Equal(t, "pick_and_roll", player.Shots[0].ActionType)

	require.Len(t, raw.Games, 1)
	assert.Equal(t, "2024-01-15", raw.Games[0].Date)

	assert.Equal(t, 2, raw.EventCount())
}

func TestLoadRawDataMissingDirectory(t *testing.T) {
	_, err := LoadRawData("/nonexistent/raw_data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
}

func TestLoadRawDataMissingFile(t *testing.T) {
	dir := writeRawDir(t, map[string]string{
		"teams.json": testTeamsJSON,
		"games.json": testGamesJSON,
	})

	_, err := LoadRawData(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "players.json")
}

func TestLoadRawDataMalformedJSON(t *testing.T) {
	dir := writeRawDir(t, map[string]string{
		"teams.json":   `{not json`,
		"players.json": `[]`,
		"games.json":   `[]`,
	})

	_, err := LoadRawData(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
