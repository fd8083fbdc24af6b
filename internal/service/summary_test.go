package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"courtvision/backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestNormalizeActionName(t *testing.T) {
	assert.Equal(t, "Pick & Roll", normalizeActionName("Pick & Roll"))
	assert.Equal(t, "Isolation", normalizeActionName("Isolation"))
	assert.Equal(t, "Post-up", normalizeActionName("Post-up"))
	assert.Equal(t, "Off-Ball Screen", normalizeActionName("Off-Ball Screen"))
	assert.Equal(t, "UNKNOWN", normalizeActionName("UNKNOWN"))
	assert.Equal(t, "UNKNOWN", normalizeActionName("Unknown Action"))
	assert.Equal(t, "UNKNOWN", normalizeActionName(""))
	assert.Equal(t, "UNKNOWN", normalizeActionName("Transition"))
}

func TestAggregateSummary(t *testing.T) {
	shots := []repository.ShotRow{
		{XFt: validFloat(5), YFt: validFloat(3), ShotResult: "make", Points: 2, ActionName: "Pick & Roll", GameID: 1},
		{XFt: validFloat(24), YFt: validFloat(1), ShotResult: "make", Points: 3, ActionName: "Pick & Roll", GameID: 1},
		{XFt: validFloat(-10), YFt: validFloat(8), ShotResult: "miss", Points: 0, ActionName: "Isolation", GameID: 2},
		{ShotResult: "miss", Points: 0, ActionName: "Transition", GameID: 2},
	}
	passes := []repository.PassRow{
		{XFt: validFloat(1), YFt: validFloat(2), ActionName: "Pick & Roll", GameID: 1},
		{XFt: validFloat(3), YFt: validFloat(4), ActionName: "Post-up", GameID: 2},
	}
	turnovers := []repository.TurnoverRow{
		{XFt: validFloat(0), YFt: validFloat(0), TurnoverType: "general", ActionName: "Isolation", GameID: 1},
	}

	summary := aggregateSummary(7, "Test Player", shots, passes, turnovers)

	assert.Equal(t, 7, summary.PlayerID)
	assert.Equal(t, "Test Player", summary.Name)

	// Top-level totals
	assert.Equal(t, 5, summary.Totals.Points)
	assert.Equal(t, 2, summary.Totals.Makes)
	assert.Equal(t, 2, summary.Totals.Misses)
	assert.Equal(t, 4, summary.Totals.Shots)
	assert.Equal(t, 2, summary.Totals.Passes)
	assert.Equal(t, 1, summary.Totals.Turnovers)

	// Every canonical bucket exists even when empty
	require.Len(t, summary.Actions, 5)
	for _, name := range []string{"Pick & Roll", "Isolation", "Post-up", "Off-Ball Screen", "UNKNOWN"} {
		require.Contains(t, summary.Actions, name)
	}

	pnr := summary.Actions["Pick & Roll"]
	assert.Len(t, pnr.Shots, 2)
	assert.Len(t, pnr.Passes, 1)
	assert.Equal(t, 5, pnr.Totals.Points)
	assert.Equal(t, 2, pnr.Totals.Makes)
	assert.Equal(t, 0, pnr.Totals.Misses)

	iso := summary.Actions["Isolation"]
	assert.Len(t, iso.Shots, 1)
	assert.Len(t, iso.Turnovers, 1)
	assert.Equal(t, 1, iso.Totals.Misses)

	// Non-canonical action name folds into UNKNOWN
	unknown := summary.Actions["UNKNOWN"]
	require.Len(t, unknown.Shots, 1)
	assert.Nil(t, unknown.Shots[0].X, "Null coordinate survives as null")

	offball := summary.Actions["Off-Ball Screen"]
	assert.Empty(t, offball.Shots)
	assert.Empty(t, offball.Passes)
	assert.Empty(t, offball.Turnovers)

	// Ranks are nil until computed
	assert.Nil(t, summary.Ranks.Points)
}

func TestAggregateSummaryEmpty(t *testing.T) {
	summary := aggregateSummary(42, "Bench Player", nil, nil, nil)

	assert.Equal(t, Totals{}, summary.Totals)
	require.Len(t, summary.Actions, 5)
	for _, bucket := range summary.Actions {
		assert.NotNil(t, bucket.Shots, "Empty buckets serialize as [] not null")
		assert.Empty(t, bucket.Shots)
	}
}

func TestPlayerSummaryJSONShape(t *testing.T) {
	shots := []repository.ShotRow{
		{XFt: validFloat(5), YFt: validFloat(3), ShotResult: "make", Points: 2, ActionName: "Pick & Roll", GameID: 1},
	}

	summary := aggregateSummary(7, "Test Player", shots, nil, nil)

	payload, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, float64(7), decoded["playerId"])
	require.Contains(t, decoded, "totals")
	require.Contains(t, decoded, "ranks")
	require.Contains(t, decoded, "actions")

	actions := decoded["actions"].(map[string]interface{})
	pnr := actions["Pick & Roll"].(map[string]interface{})
	shotsJSON := pnr["shots"].([]interface{})
	require.Len(t, shotsJSON, 1)

	shot := shotsJSON[0].(map[string]interface{})
	assert.Equal(t, 5.0, shot["x"])
	assert.Equal(t, "make", shot["shot_result"])
	assert.Equal(t, float64(2), shot["points"])

	ranks := decoded["ranks"].(map[string]interface{})
	assert.Nil(t, ranks["points"], "Uncomputed ranks serialize as null")
}

type fakeCache struct {
	entries map[string]string
	deleted []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.entries[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.entries[key] = string(value.([]byte))
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func TestGetPlayerSummaryServedFromCache(t *testing.T) {
	fc := newFakeCache()
	cached := &PlayerSummary{PlayerID: 7, Name: "Test Player", Totals: Totals{Points: 12}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	fc.entries[summaryCacheKey(7)] = string(payload)

	// A nil database proves the hit never reaches the repositories
	svc := NewSummaryService(nil, fc, time.Minute)

	got, err := svc.GetPlayerSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.PlayerID)
	assert.Equal(t, 12, got.Totals.Points)
}

func TestReadCachedMiss(t *testing.T) {
	svc := NewSummaryService(nil, newFakeCache(), time.Minute)

	assert.Nil(t, svc.readCached(context.Background(), 7))
}

func TestReadCachedNilCache(t *testing.T) {
	svc := NewSummaryService(nil, nil, time.Minute)

	assert.Nil(t, svc.readCached(context.Background(), 7))
}

func TestReadCachedInvalidatesUnreadableEntry(t *testing.T) {
	fc := newFakeCache()
	fc.entries[summaryCacheKey(7)] = "{not json"
	svc := NewSummaryService(nil, fc, time.Minute)

	assert.Nil(t, svc.readCached(context.Background(), 7))

	assert.Contains(t, fc.deleted, summaryCacheKey(7), "Unreadable entry is dropped, not left to expire")
	assert.NotContains(t, fc.entries, summaryCacheKey(7))
}

func TestReadCachedToleratesCacheFailure(t *testing.T) {
	fc := newFakeCache()
	fc.getErr = errors.New("connection refused")
	svc := NewSummaryService(nil, fc, time.Minute)

	assert.Nil(t, svc.readCached(context.Background(), 7), "Cache failure falls through to the database")
}

func TestInvalidatePlayerSummary(t *testing.T) {
	fc := newFakeCache()
	fc.entries[summaryCacheKey(7)] = "{}"
	svc := NewSummaryService(nil, fc, time.Minute)

	require.NoError(t, svc.InvalidatePlayerSummary(context.Background(), 7))
	assert.NotContains(t, fc.entries, summaryCacheKey(7))

	// Without a cache invalidation is a no-op
	svc = NewSummaryService(nil, nil, time.Minute)
	assert.NoError(t, svc.InvalidatePlayerSummary(context.Background(), 7))
}
