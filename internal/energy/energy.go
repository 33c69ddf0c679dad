// Package energy implements the organism's metabolism: photosynthesis
// converts gardener attention into energy, phloem distributes it down
// from seed to sprout, mycorrhizal transfer redistributes it sideways
// between sprouts, and entropy drains it every tick according to season.
package energy

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// Phi is the golden ratio, used throughout the organism's growth and
// energy formulas as a decay/weighting constant.
const Phi = 1.6180339887498949

// SeasonDecayModifiers scale the base decay rate per season.
var SeasonDecayModifiers = map[string]float64{
	"spring": 0.5,
	"summer": 1.0,
	"autumn": 0.8,
	"winter": 0.2,
}

// Organ is the energy subsystem: photosynthesis, phloem distribution,
// mycorrhizal redistribution, and entropic decay.
type Organ struct {
	bus   *hormonebus.Bus
	store storage.Store
	log   *slog.Logger

	BasePhotosynthesisRate float64
	DecayRate              float64
	MycorrhizalRatio       float64
	TidalPeriod            time.Duration
}

func New(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *Organ {
	return &Organ{
		bus:                    bus,
		store:                  store,
		log:                    logger.With("organ", "energy"),
		BasePhotosynthesisRate: 1.0,
		DecayRate:              0.02,
		MycorrhizalRatio:       0.15,
		TidalPeriod:            4 * time.Hour,
	}
}

func (o *Organ) tidalCoefficient(now time.Time) float64 {
	phase := o.tidalPhase(now)
	return round4(1.0 + 0.5*math.Sin(2*math.Pi*phase))
}

// TidalPhase returns the raw [0,1) position within the tidal cycle.
func (o *Organ) tidalPhase(now time.Time) float64 {
	period := o.TidalPeriod.Seconds()
	if period <= 0 {
		return 0
	}
	elapsed := math.Mod(float64(now.Unix()), period)
	return elapsed / period
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Photosynthesize converts gardener attention time into seed energy,
// scaled by the seed's resonance and the tidal coefficient, capped at 50
// units per call.
func (o *Organ) Photosynthesize(ctx context.Context, seed *domain.Seed, attentionSeconds float64) (float64, error) {
	resonanceMultiplier := math.Max(seed.Resonance, 0.1) + 1.0
	tidal := o.tidalCoefficient(time.Now())
	energyGained := round4(math.Min(o.BasePhotosynthesisRate*attentionSeconds*resonanceMultiplier*tidal, 50.0))

	seed.Energy += energyGained
	if err := o.store.SaveSeed(ctx, seed); err != nil {
		return 0, err
	}

	garden, err := o.store.GetGardenState(ctx)
	if err == nil {
		garden.TotalEnergy += energyGained
		_ = o.store.SaveGardenState(ctx, garden)
	}

	o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "photosynthesis", map[string]any{
		"seed_id": seed.ID,
		"energy":  energyGained,
	}, "energy", domain.HormoneInstant))

	return energyGained, nil
}

// PhloemDistribute pushes a share of a seed's energy down to its sprouts
// in proportion to each sprout's pressure weighted by its ethical score.
func (o *Organ) PhloemDistribute(ctx context.Context, seed *domain.Seed, sprouts []*domain.Sprout) error {
	if len(sprouts) == 0 {
		return nil
	}

	totalNeed := 0.0
	for _, sp := range sprouts {
		totalNeed += sp.Pressure * sp.EthicalScore
	}
	if totalNeed == 0 {
		totalNeed = 1.0
	}

	distributable := seed.Energy * 0.3
	for _, sp := range sprouts {
		share := (sp.Pressure * sp.EthicalScore / totalNeed) * distributable
		sp.Energy += share
		if err := o.store.SaveSprout(ctx, sp); err != nil {
			return err
		}
	}
	seed.Energy -= distributable
	return o.store.SaveSeed(ctx, seed)
}

// MycorrhizalRedistribute moves surplus energy from thriving sprouts to
// starved ones within the same seed's network, weighted by proximity in
// decomposition depth.
func (o *Organ) MycorrhizalRedistribute(ctx context.Context, sprouts []*domain.Sprout) error {
	if len(sprouts) == 0 {
		return nil
	}

	total := 0.0
	for _, sp := range sprouts {
		total += sp.Energy
	}
	avgEnergy := total / float64(len(sprouts))

	var donors, receivers []*domain.Sprout
	for _, sp := range sprouts {
		switch {
		case sp.Energy > 1.3*avgEnergy:
			donors = append(donors, sp)
		case sp.Energy < 0.7*avgEnergy:
			receivers = append(receivers, sp)
		}
	}
	if len(donors) == 0 || len(receivers) == 0 {
		return nil
	}

	totalTransferred := 0.0
	for _, donor := range donors {
		surplus := donor.Energy - avgEnergy
		transfer := surplus * o.MycorrhizalRatio
		if transfer <= 0 {
			continue
		}
		perReceiver := transfer / float64(len(receivers))
		for _, receiver := range receivers {
			proximity := 1.0 / (1.0 + math.Abs(float64(donor.Depth-receiver.Depth)))
			amount := perReceiver * proximity
			receiver.Energy += amount
			donor.Energy -= amount
			totalTransferred += amount
			if err := o.store.SaveSprout(ctx, receiver); err != nil {
				return err
			}
		}
		if err := o.store.SaveSprout(ctx, donor); err != nil {
			return err
		}
	}

	if totalTransferred > 0.5 {
		o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "energy_surplus", map[string]any{
			"total_transferred": totalTransferred,
		}, "energy", domain.HormoneInstant))
	}
	return nil
}

// ApplyEntropy drains energy from every sprout according to the base
// decay rate scaled by the season's decay modifier, marking sprouts that
// deplete below a floor as famine victims.
func (o *Organ) ApplyEntropy(ctx context.Context, sprouts []*domain.Sprout, season string) error {
	modifier := SeasonDecayModifiers[season]
	if modifier == 0 {
		modifier = 1.0
	}
	effectiveDecay := o.DecayRate * modifier

	depleted := 0
	for _, sp := range sprouts {
		sp.Energy -= sp.Energy * effectiveDecay
		if sp.Energy < 0.01 {
			sp.Energy = 0
			depleted++
		}
		if err := o.store.SaveSprout(ctx, sp); err != nil {
			return err
		}
	}

	if depleted > 0 {
		o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "energy_famine", map[string]any{
			"depleted_count": depleted,
		}, "energy", domain.HormoneInstant))
	}
	return nil
}
