package etl

import (
	"context"
	"strings"

	"courtvision/backend/internal/models"
	"courtvision/backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// actionMapping maps normalized raw labels to canonical action codes.
// Labels are normalized before lookup (lowercased, separators stripped),
// so camelCase and snake_case spellings of the same action collapse to
// one key.
var actionMapping = map[string]string{
	"pickandroll":   models.ActionPNR,
	"isolation":     models.ActionISO,
	"postup":        models.ActionPost,
	"offballscreen": models.ActionOffBall,
}

// normalizeLabel collapses case and separator differences in raw labels
func normalizeLabel(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Registry resolves raw free-text action labels to canonical action rows.
// It is populated once per run so event parsing never touches the
// database for action lookups.
type Registry struct {
	byCode map[string]*models.Action
	seen   map[string]string // raw label -> resolved code
	stats  *RunStats
}

// LoadRegistry seeds the default action taxonomy (get-or-create) and
// returns a registry backed by the persisted rows. In dry-run mode
// nothing is written: existing rows are loaded and missing defaults are
// materialized in memory only.
func LoadRegistry(ctx context.Context, repo *repository.ActionRepository, dryRun bool, stats *RunStats) (*Registry, error) {
	reg := &Registry{
		byCode: make(map[string]*models.Action, len(models.DefaultActions)),
		seen:   make(map[string]string),
		stats:  stats,
	}

	if dryRun {
		existing, err := repo.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range existing {
			reg.byCode[a.Code] = a
		}
		for _, def := range models.DefaultActions {
			if _, ok := reg.byCode[def.Code]; !ok {
				a := def
				reg.byCode[def.Code] = &a
				stats.ActionsCreated++
			}
		}
		return reg, nil
	}

	for _, def := range models.DefaultActions {
		action, created, err := repo.GetOrCreate(ctx, def.Code, def.Name)
		if err != nil {
			return nil, err
		}
		reg.byCode[action.Code] = action
		if created {
			stats.ActionsCreated++
		}
	}

	return reg, nil
}

// LoadRegistryFromExisting builds a registry from rows already in the
// database without seeding, for runs that skip the actions step.
func LoadRegistryFromExisting(ctx context.Context, repo *repository.ActionRepository, stats *RunStats) (*Registry, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		byCode: make(map[string]*models.Action, len(existing)),
		seen:   make(map[string]string),
		stats:  stats,
	}
	for _, a := range existing {
		reg.byCode[a.Code] = a
	}

	return reg, nil
}

// Resolve maps a raw action label to a canonical code. Unrecognized
// labels fall back to UNKNOWN with a warning logged on first sight;
// repeated resolutions of the same label are silent lookups.
func (r *Registry) Resolve(rawLabel string) string {
	if code, ok := r.seen[rawLabel]; ok {
		return code
	}

	code, ok := actionMapping[normalizeLabel(rawLabel)]
	if !ok {
		code = models.ActionUnknown
		if rawLabel != "" {
			log.Warn().Str("action_type", rawLabel).Msg("Unknown action type mapped to UNKNOWN")
			if r.stats != nil {
				r.stats.Warnings++
			}
		}
	}

	r.seen[rawLabel] = code
	return code
}

// Get returns the persisted action row for a canonical code
func (r *Registry) Get(code string) (*models.Action, bool) {
	a, ok := r.byCode[code]
	return a, ok
}
