package autonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// Engine is the decision cortex: heuristic-first lifecycle calls with an
// LLM tiebreaker for borderline cases, gated by a per-tick budget.
type Engine struct {
	model  textmodel.TextModel
	budget *TickBudget
	log    *slog.Logger
}

func New(model textmodel.TextModel, budget *TickBudget, logger *slog.Logger) *Engine {
	return &Engine{model: model, budget: budget, log: logger.With("organ", "autonomy")}
}

func (e *Engine) askYesNo(ctx context.Context, phase, system, prompt string) bool {
	if e.model == nil || !e.budget.available() {
		return false
	}
	e.budget.use()
	result, err := e.model.Complete(ctx, textmodel.Request{
		Organ:       "autonomy",
		Phase:       phase,
		System:      system,
		Prompt:      prompt,
		Temperature: 0.2,
		MaxTokens:   10,
	}, nil)
	if err != nil {
		e.log.Debug("llm decision failed", "phase", phase, "error", err)
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(result)), "yes")
}

// ShouldHarvest decides whether a growing seed has been sufficiently
// decomposed and energized to be considered fulfilled.
func (e *Engine) ShouldHarvest(ctx context.Context, seed *domain.Seed, sprouts []*domain.Sprout) bool {
	if seed.Status != domain.SeedStatusGrowing || len(sprouts) == 0 {
		return false
	}

	ageSeconds := time.Since(seed.CreatedAt).Seconds()
	isMature := ageSeconds > 120
	if !isMature || len(sprouts) < 2 {
		return false
	}

	hasEnergy := seed.Energy >= 15.0
	hasDepth := len(sprouts) >= 3
	if hasEnergy && hasDepth {
		e.log.Info("heuristic harvest", "seed_id", seed.ID, "energy", seed.Energy, "sprouts", len(sprouts))
		return true
	}

	var desc strings.Builder
	limit := sprouts
	if len(limit) > 8 {
		limit = limit[:8]
	}
	for _, s := range limit {
		fmt.Fprintf(&desc, "  - [depth %d] %s (energy: %.1f)\n", s.Depth, s.Description, s.Energy)
	}

	decided := e.askYesNo(ctx, "harvest_eval",
		"You are the decision cortex of a living garden organism. You evaluate seed maturity.",
		fmt.Sprintf(
			"A seed in the garden has this essence: \"%s\"\nStatus: %s, Energy: %.1f, Sprouts: %d\nFractal tree:\n%s\n"+
				"Has this seed been sufficiently decomposed and energized to be considered fulfilled? "+
				"Answer ONLY 'yes' or 'no' — nothing else.",
			seed.Essence, seed.Status, seed.Energy, len(sprouts), desc.String()))
	if decided {
		e.log.Info("llm harvest", "seed_id", seed.ID)
	}
	return decided
}

// ShouldCompost decides whether a planted or growing seed has stagnated
// and should be gracefully retired.
func (e *Engine) ShouldCompost(ctx context.Context, seed *domain.Seed, sprouts []*domain.Sprout) bool {
	if seed.Status != domain.SeedStatusPlanted && seed.Status != domain.SeedStatusGrowing {
		return false
	}

	ageSeconds := time.Since(seed.CreatedAt).Seconds()
	isOld := ageSeconds > 300
	if !isOld {
		return false
	}

	isStarving := seed.Energy < 1.0
	var sproutEnergy float64
	for _, s := range sprouts {
		sproutEnergy += s.Energy
	}
	if isStarving && sproutEnergy < 0.5 {
		e.log.Info("heuristic compost", "seed_id", seed.ID, "energy", seed.Energy, "age_seconds", ageSeconds)
		return true
	}

	decided := e.askYesNo(ctx, "compost_eval",
		"You are the decision cortex of a living garden organism. You evaluate seed vitality.",
		fmt.Sprintf(
			"A seed in the garden: \"%s\"\nStatus: %s, Energy: %.1f, Age: %.0fs\n"+
				"Total sprout energy: %.1f, Sprout count: %d\n\n"+
				"Is this seed stagnant and should be composted (gracefully retired to enrich the soil)? "+
				"Answer ONLY 'yes' or 'no' — nothing else.",
			seed.Essence, seed.Status, seed.Energy, ageSeconds, sproutEnergy, len(sprouts)))
	if decided {
		e.log.Info("llm compost", "seed_id", seed.ID)
	}
	return decided
}

// ShouldPlantDream decides whether a dream insight is worth auto-planting
// as a new seed. Lucid dreams are always planted.
func (e *Engine) ShouldPlantDream(ctx context.Context, dream *domain.Dream, novelty float64) bool {
	if dream.Planted {
		return false
	}
	if novelty < 0.5 {
		e.log.Info("auto-planting lucid dream", "dream_id", dream.ID, "novelty", novelty)
		return true
	}
	if novelty < 0.7 {
		return true
	}

	decided := e.askYesNo(ctx, "dream_eval",
		"You are the decision cortex of a living garden organism. You evaluate dream quality.",
		fmt.Sprintf(
			"The garden dreamed this insight: \"%s\"\nNovelty: %.2f\n\n"+
				"Is this dream insight valuable enough to plant as a new seed in the garden? "+
				"Consider: is it actionable, surprising, or creatively useful? "+
				"Answer ONLY 'yes' or 'no' — nothing else.",
			dream.Content, novelty))
	if decided {
		e.log.Info("llm plant dream", "dream_id", dream.ID)
	}
	return decided
}

// ShouldPromote decides whether a planted seed is ready to be promoted
// to growing. Purely heuristic — no LLM tiebreaker needed.
func ShouldPromote(seed *domain.Seed) bool {
	if seed.Status != domain.SeedStatusPlanted {
		return false
	}
	ageSeconds := time.Since(seed.CreatedAt).Seconds()
	return ageSeconds > 30 && seed.Energy > 2.0
}
