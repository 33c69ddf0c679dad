// Package gardener tracks the sole human tender of the garden: how often
// they interact, what themes they gravitate toward, what hours they tend
// to show up, and an exponentially-averaged preference vector learned
// from their choices over time.
package gardener

import (
	"context"
	"time"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// PreferenceEMAAlpha weights new observations against the running
// preference vector.
const PreferenceEMAAlpha = 0.3

// Organ manages the single Gardener record.
type Organ struct {
	store storage.Store
}

func New(store storage.Store) *Organ {
	return &Organ{store: store}
}

// GetOrCreate returns the gardener record, creating it on first use.
func (o *Organ) GetOrCreate(ctx context.Context) (*domain.Gardener, error) {
	return o.store.GetOrCreateGardener(ctx, domain.GardenSingletonID)
}

// RecordInteraction bumps the interaction count and updates both the
// pheromone trail (theme -> count) and the rhythm profile (hour of day ->
// count) for the current moment.
func (o *Organ) RecordInteraction(ctx context.Context, themes []string) error {
	g, err := o.GetOrCreate(ctx)
	if err != nil {
		return err
	}
	g.InteractionCount++
	for _, theme := range themes {
		g.PheromoneTrails[theme]++
	}
	hour := time.Now().Hour()
	g.RhythmProfile[hour]++
	g.UpdatedAt = time.Now()
	return o.store.SaveGardener(ctx, g)
}

// PheromoneBias normalizes the theme trail counts into per-theme
// fractions of total interaction.
func (o *Organ) PheromoneBias(ctx context.Context) (map[string]float64, error) {
	g, err := o.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeCounts(g.PheromoneTrails), nil
}

// RhythmProfile normalizes the hour-of-day counts into fractions.
func (o *Organ) RhythmProfile(ctx context.Context) (map[int]float64, error) {
	g, err := o.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, c := range g.RhythmProfile {
		total += c
	}
	out := make(map[int]float64, len(g.RhythmProfile))
	if total == 0 {
		return out, nil
	}
	for hour, c := range g.RhythmProfile {
		out[hour] = float64(c) / float64(total)
	}
	return out, nil
}

func normalizeCounts(counts map[string]int) map[string]float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, c := range counts {
		out[k] = float64(c) / float64(total)
	}
	return out
}

// UpdatePreferenceVector folds a new observation into the gardener's
// running preference vector with an exponential moving average; a
// component with no prior value is simply set outright.
func (o *Organ) UpdatePreferenceVector(ctx context.Context, observation map[string]float64) error {
	g, err := o.GetOrCreate(ctx)
	if err != nil {
		return err
	}
	if g.PreferenceVector == nil {
		g.PreferenceVector = map[string]float64{}
	}
	for k, v := range observation {
		current, ok := g.PreferenceVector[k]
		if !ok {
			g.PreferenceVector[k] = v
			continue
		}
		g.PreferenceVector[k] = PreferenceEMAAlpha*v + (1-PreferenceEMAAlpha)*current
	}
	g.UpdatedAt = time.Now()
	return o.store.SaveGardener(ctx, g)
}
