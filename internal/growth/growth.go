// Package growth implements the vascular system: a planted Seed is
// decomposed fractally into four levels of Sprouts (intention, goal,
// task, action), each weighted by golden-ratio energy inheritance and
// scored with a pressure that favors shallow, early siblings.
package growth

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/energy"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

var DepthLabels = map[int]string{0: "intention", 1: "goal", 2: "task", 3: "action"}

// DecompositionPatterns are canned four-level templates keyed by theme.
// Grow decomposes every seed with them; it does not ask the text model
// for a decomposition.
var DecompositionPatterns = map[string][4][]string{
	"creativity": {
		{"express this creative impulse"},
		{"choose a medium", "gather materials"},
		{"sketch a first draft", "set aside focused time"},
		{"make the first mark", "share the draft"},
	},
	"connection": {
		{"deepen this connection"},
		{"reach out", "make space for them"},
		{"write a message", "plan a shared moment"},
		{"send the message", "show up and listen"},
	},
	"health": {
		{"tend to this body"},
		{"pick one habit", "address the root cause"},
		{"schedule rest", "plan a small change"},
		{"take the first small action", "rest tonight"},
	},
	"growth": {
		{"pursue this growth"},
		{"identify the next skill", "find a teacher or source"},
		{"study for one session", "practice once"},
		{"open the material", "do one rep"},
	},
	"general": {
		{"honor this intention"},
		{"clarify the goal"},
		{"define the next task"},
		{"take the next action"},
	},
}

func getPattern(themes []string) string {
	for _, theme := range themes {
		if _, ok := DecompositionPatterns[theme]; ok {
			return theme
		}
	}
	return "general"
}

func phiWeight(birthOrder int, parentEnergy float64) float64 {
	w := parentEnergy / math.Pow(energy.Phi, float64(birthOrder))
	if w < 0.1 {
		w = 0.1
	}
	return round4(w)
}

func pressureScore(depth, siblingIdx, totalSiblings int) float64 {
	if totalSiblings == 0 {
		totalSiblings = 1
	}
	base := 1.0 / (1.0 + float64(depth)*0.3)
	penalty := 1.0 - 0.3*float64(siblingIdx+1)/float64(totalSiblings)
	return round4(base * penalty)
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

// Grower is the growth organ: fractal decomposition of seeds into sprouts.
type Grower struct {
	bus   *hormonebus.Bus
	store storage.Store
	model textmodel.TextModel
	log   *slog.Logger
}

func New(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, logger *slog.Logger) *Grower {
	return &Grower{bus: bus, store: store, model: model, log: logger.With("organ", "growth")}
}

// Grow decomposes seed into up to four levels of sprouts. Each surviving
// parent from the previous depth spawns its own full set of children —
// the tree branches exponentially, not round-robin across a flat level.
// A parent whose inherited energy can't afford the depth cost simply
// produces no children at that depth; its siblings still can.
func (g *Grower) Grow(ctx context.Context, seed *domain.Seed) ([]*domain.Sprout, error) {
	pattern := DecompositionPatterns[getPattern(seed.Themes)]

	var allSprouts []*domain.Sprout
	parentIDs := []*string{nil}
	parentEnergies := []float64{seed.Energy}

	for depth := 0; depth < 4; depth++ {
		descriptions := pattern[depth]
		depthCost := math.Pow(energy.Phi, float64(depth))

		var nextParentIDs []*string
		var nextParentEnergies []float64

		for parentIdx, parentEnergy := range parentEnergies {
			if parentEnergy < depthCost {
				continue
			}
			parentID := parentIDs[parentIdx]
			childEnergyBase := parentEnergy / float64(len(descriptions))

			for idx, desc := range descriptions {
				childEnergy := phiWeight(idx, childEnergyBase)
				sprout := &domain.Sprout{
					ID:             uuid.New().String()[:16],
					SeedID:         seed.ID,
					ParentSproutID: parentID,
					Depth:          depth,
					Label:          DepthLabels[depth] + "_" + strconv.Itoa(depth) + "_" + strconv.Itoa(idx),
					Description:    desc,
					Energy:         childEnergy,
					Pressure:       pressureScore(depth, idx, len(descriptions)),
					EthicalScore:   seed.EthicalScore,
					Resonance:      seed.Resonance,
					Status:         domain.SproutStatusBudding,
					CreatedAt:      time.Now(),
				}
				if err := g.store.SaveSprout(ctx, sprout); err != nil {
					return nil, err
				}
				allSprouts = append(allSprouts, sprout)

				id := sprout.ID
				nextParentIDs = append(nextParentIDs, &id)
				nextParentEnergies = append(nextParentEnergies, childEnergy)
			}
		}

		parentIDs = nextParentIDs
		parentEnergies = nextParentEnergies
		if len(parentIDs) == 0 {
			break
		}
	}

	seed.Status = domain.SeedStatusGrowing
	if err := g.store.SaveSeed(ctx, seed); err != nil {
		return nil, err
	}

	g.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "tree_grown", map[string]any{
		"seed_id":      seed.ID,
		"sprout_count": len(allSprouts),
	}, "growth", domain.HormoneInstant))

	return allSprouts, nil
}

// TriggerApoptosis composts a sprout that has exhausted its purpose.
func (g *Grower) TriggerApoptosis(ctx context.Context, sprout *domain.Sprout) error {
	now := time.Now()
	sprout.Status = domain.SproutStatusComposted
	sprout.ApoptosisAt = &now
	if err := g.store.SaveSprout(ctx, sprout); err != nil {
		return err
	}
	g.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "apoptosis", map[string]any{
		"sprout_id": sprout.ID,
	}, "growth", domain.HormoneInstant))
	return nil
}
