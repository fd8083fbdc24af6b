package etl

import (
	"context"
	"time"

	"courtvision/backend/internal/models"
	"courtvision/backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Default season seeded when none exists
const (
	DefaultSeasonStart = 2023
	DefaultSeasonEnd   = 2024
)

// DateFilter restricts which games are loaded. Both bounds are inclusive
// and either may be nil.
type DateFilter struct {
	Since *time.Time
	Until *time.Time
}

// Contains reports whether d falls inside the filter
func (f DateFilter) Contains(d time.Time) bool {
	if f.Since != nil && d.Before(*f.Since) {
		return false
	}
	if f.Until != nil && d.After(*f.Until) {
		return false
	}
	return true
}

// DimensionCache maps natural source ids to loaded dimension rows so the
// parser resolves foreign keys without a database round trip per event.
type DimensionCache struct {
	Season  *models.Season
	Teams   map[int]*models.Team
	Players map[int]*models.Player
	Games   map[int]*models.Game
}

// LoadDimensions upserts the dimension tables from raw records and
// returns the id caches. Teams and players load unconditionally; games
// outside the date filter are neither created nor touched. In dry-run
// mode existing rows are read and missing ones are materialized in
// memory only.
func LoadDimensions(ctx context.Context, db *repository.Database, raw *RawData, filter DateFilter, dryRun bool, stats *RunStats) (*DimensionCache, error) {
	if dryRun {
		return loadDimensionsDryRun(ctx, db, raw, filter, stats)
	}

	cache := &DimensionCache{
		Teams:   make(map[int]*models.Team, len(raw.Teams)),
		Players: make(map[int]*models.Player, len(raw.Players)),
		Games:   make(map[int]*models.Game, len(raw.Games)),
	}

	season, err := db.Seasons.GetOrCreate(ctx, DefaultSeasonStart, DefaultSeasonEnd)
	if err != nil {
		return nil, err
	}
	cache.Season = season

	for _, t := range raw.Teams {
		team, created, err := db.Teams.GetOrCreate(ctx, t.TeamID, t.Name)
		if err != nil {
			return nil, err
		}
		cache.Teams[t.TeamID] = team
		if created {
			stats.TeamsUpserted++
		}
	}

	for _, p := range raw.Players {
		team, ok := cache.Teams[p.TeamID]
		if !ok {
			log.Warn().
				Int("player_id", p.PlayerID).
				Int("team_id", p.TeamID).
				Msg("Player references unknown team, skipping")
			stats.Warnings++
			continue
		}

		player, created, err := db.Players.GetOrCreate(ctx, p.PlayerID, p.Name, team.ID)
		if err != nil {
			return nil, err
		}
		cache.Players[p.PlayerID] = player
		if created {
			stats.PlayersUpserted++
		}
	}

	for _, g := range raw.Games {
		date, ok := parseGameDate(g, stats)
		if !ok {
			continue
		}
		if !filter.Contains(date) {
			continue
		}

		game, created, err := db.Games.GetOrCreate(ctx, g.ID, date, season.ID)
		if err != nil {
			return nil, err
		}
		cache.Games[g.ID] = game
		if created {
			stats.GamesUpserted++
		}
	}

	log.Info().
		Int("teams", len(cache.Teams)).
		Int("players", len(cache.Players)).
		Int("games", len(cache.Games)).
		Msg("Dimension caches loaded")

	return cache, nil
}

// loadDimensionsDryRun builds the caches without writing: existing rows
// come from the database, missing rows are counted as would-be upserts
// and held in memory with a zero database id.
func loadDimensionsDryRun(ctx context.Context, db *repository.Database, raw *RawData, filter DateFilter, stats *RunStats) (*DimensionCache, error) {
	cache := &DimensionCache{
		Season:  &models.Season{YearStart: DefaultSeasonStart, YearEnd: DefaultSeasonEnd},
		Teams:   make(map[int]*models.Team, len(raw.Teams)),
		Players: make(map[int]*models.Player, len(raw.Players)),
		Games:   make(map[int]*models.Game, len(raw.Games)),
	}

	existingTeams, err := db.Teams.List(ctx)
	if err != nil {
		return nil, err
	}
	teamsByID := make(map[int]*models.Team, len(existingTeams))
	for _, t := range existingTeams {
		teamsByID[t.TeamID] = t
	}

	existingPlayers, err := db.Players.List(ctx)
	if err != nil {
		return nil, err
	}
	playersByID := make(map[int]*models.Player, len(existingPlayers))
	for _, p := range existingPlayers {
		playersByID[p.PlayerID] = p
	}

	existingGames, err := db.Games.List(ctx)
	if err != nil {
		return nil, err
	}
	gamesByID := make(map[int]*models.Game, len(existingGames))
	for _, g := range existingGames {
		gamesByID[g.GameID] = g
	}

	for _, t := range raw.Teams {
		if team, ok := teamsByID[t.TeamID]; ok {
			cache.Teams[t.TeamID] = team
			continue
		}
		cache.Teams[t.TeamID] = &models.Team{TeamID: t.TeamID, Name: t.Name}
		stats.TeamsUpserted++
	}

	for _, p := range raw.Players {
		if _, ok := cache.Teams[p.TeamID]; !ok {
			log.Warn().
				Int("player_id", p.PlayerID).
				Int("team_id", p.TeamID).
				Msg("Player references unknown team, skipping")
			stats.Warnings++
			continue
		}
		if player, ok := playersByID[p.PlayerID]; ok {
			cache.Players[p.PlayerID] = player
			continue
		}
		cache.Players[p.PlayerID] = &models.Player{PlayerID: p.PlayerID, Name: p.Name}
		stats.PlayersUpserted++
	}

	for _, g := range raw.Games {
		date, ok := parseGameDate(g, stats)
		if !ok {
			continue
		}
		if !filter.Contains(date) {
			continue
		}
		if game, ok := gamesByID[g.ID]; ok {
			cache.Games[g.ID] = game
			continue
		}
		cache.Games[g.ID] = &models.Game{GameID: g.ID, Date: date}
		stats.GamesUpserted++
	}

	return cache, nil
}

// LoadExistingDimensions builds the caches purely from rows already in
// the database, for runs that process events without reloading
// dimensions.
func LoadExistingDimensions(ctx context.Context, db *repository.Database) (*DimensionCache, error) {
	cache := &DimensionCache{
		Teams:   make(map[int]*models.Team),
		Players: make(map[int]*models.Player),
		Games:   make(map[int]*models.Game),
	}

	teams, err := db.Teams.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		cache.Teams[t.TeamID] = t
	}

	players, err := db.Players.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		cache.Players[p.PlayerID] = p
	}

	games, err := db.Games.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		cache.Games[g.GameID] = g
	}

	return cache, nil
}

func parseGameDate(g models.RawGame, stats *RunStats) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", g.Date)
	if err != nil {
		log.Warn().Int("game_id", g.ID).Str("date", g.Date).Msg("Unparseable game date, skipping game")
		stats.Warnings++
		return time.Time{}, false
	}
	return date, true
}
