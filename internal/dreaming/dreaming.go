// Package dreaming implements the organism's subconscious: during winter
// or idle stretches it consolidates completed seeds into a shared theme
// pool and recombines them, temperature-controlled, into a dream insight
// the gardener can later choose to plant as a new seed.
package dreaming

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// DefaultTemperature is used when a caller doesn't specify one.
const DefaultTemperature = 0.7

var connectors = []string{
	"meets", "flows into", "awakens", "transforms through",
	"dances with", "remembers", "seeds", "nurtures",
	"illuminates", "bridges", "weaves into", "echoes",
}

// Engine is the dreaming organ.
type Engine struct {
	bus   *hormonebus.Bus
	store storage.Store
	model textmodel.TextModel
	log   *slog.Logger
}

func New(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, logger *slog.Logger) *Engine {
	return &Engine{bus: bus, store: store, model: model, log: logger.With("organ", "dreaming")}
}

// Dream consolidates every harvested or composted seed's themes into a
// pool, recombines them into a dream insight, and persists the result.
// It returns nil, nil when the garden has no completed seeds yet to
// dream about.
func (e *Engine) Dream(ctx context.Context, temperature float64) (*domain.Dream, error) {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	harvested, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusHarvested)
	if err != nil {
		return nil, err
	}
	composted, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusComposted)
	if err != nil {
		return nil, err
	}
	completed := append(harvested, composted...)
	if len(completed) == 0 {
		e.log.Debug("no completed seeds to dream about, garden too young")
		return nil, nil
	}

	themeSet := map[string]bool{}
	var essences []string
	for _, s := range completed {
		for _, t := range s.Themes {
			themeSet[t] = true
		}
		essences = append(essences, s.Essence)
	}
	themes := make([]string, 0, len(themeSet))
	for t := range themeSet {
		themes = append(themes, t)
	}

	novelty := noveltyScore(completed, temperature)
	insight := e.llmDream(ctx, themes, essences, temperature)
	if insight == "" {
		insight = generateInsight(themes, temperature)
	}

	isLucid := novelty < 0.5
	dream := &domain.Dream{
		ID:      uuid.New().String()[:16],
		Content: insight,
		Themes:  themes,
		IsLucid: isLucid,
		Planted: false,
	}
	if err := e.store.SaveDream(ctx, dream); err != nil {
		return nil, err
	}

	hormoneName := "dream_generated"
	if isLucid {
		hormoneName = "lucid_dream"
	}
	e.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], hormoneName, map[string]any{
		"dream_id":  dream.ID,
		"insight":   insight,
		"novelty":   novelty,
		"is_lucid":  isLucid,
	}, "dreaming", domain.HormoneInstant))

	return dream, nil
}

// noveltyScore approximates the reference implementation's embedding
// perplexity with a cheap proxy: how unevenly energy is spread across
// the completed seeds' themes, perturbed by temperature. Lower means
// the dream draws from a tight, well-worn cluster of experience; higher
// means it reaches across disparate material.
func noveltyScore(completed []*domain.Seed, temperature float64) float64 {
	if len(completed) == 0 {
		return 0.5
	}
	var total, variance float64
	for _, s := range completed {
		total += s.Energy
	}
	mean := total / float64(len(completed))
	for _, s := range completed {
		d := s.Energy - mean
		variance += d * d
	}
	variance /= float64(len(completed))
	score := (variance / (mean + 1)) + rand.Float64()*temperature*0.1
	if score > 5.0 {
		score = 5.0
	}
	return round4(score)
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

// generateInsight recombines themes into a dream-like sentence; higher
// temperature shuffles the theme order more aggressively before pairing.
func generateInsight(themes []string, temperature float64) string {
	if len(themes) == 0 {
		return "The garden rests in quiet potential."
	}
	shuffled := make([]string, len(themes))
	copy(shuffled, themes)
	swaps := int(temperature * 5)
	for i := 0; i < swaps; i++ {
		if len(shuffled) < 2 {
			break
		}
		a := rand.Intn(len(shuffled))
		b := rand.Intn(len(shuffled))
		shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
	}

	if len(shuffled) == 1 {
		return fmt.Sprintf("A deeper layer of %s wants to emerge.", shuffled[0])
	}

	var pairs []string
	for i := 0; i+1 < len(shuffled); i += 2 {
		connector := connectors[rand.Intn(len(connectors))]
		pairs = append(pairs, fmt.Sprintf("%s %s %s", shuffled[i], connector, shuffled[i+1]))
	}
	if len(shuffled)%2 == 1 {
		pairs = append(pairs, fmt.Sprintf("%s awaits its moment", shuffled[len(shuffled)-1]))
	}

	sentence := strings.Join(pairs, ". ") + "."
	return strings.ToUpper(sentence[:1]) + sentence[1:]
}

func (e *Engine) llmDream(ctx context.Context, themes []string, essences []string, temperature float64) string {
	if e.model == nil {
		return ""
	}
	themeStr := "the garden's quiet potential"
	if len(themes) > 0 {
		themeStr = strings.Join(themes, ", ")
	}
	recent := essences
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	essenceStr := "- quiet stillness"
	if len(recent) > 0 {
		var lines []string
		for _, e := range recent {
			lines = append(lines, "- "+e)
		}
		essenceStr = strings.Join(lines, "\n")
	}

	temp := temperature + 0.3
	if temp > 1.2 {
		temp = 1.2
	}

	result, err := e.model.Complete(ctx, textmodel.Request{
		Organ:  "dreaming",
		Phase:  "dreaming",
		System: "You are the dreaming subconscious of a living garden organism. You recombine memories into novel visions.",
		Prompt: fmt.Sprintf(
			"The garden is dreaming. These themes swirl in its subconscious: %s\n\n"+
				"Recent memories being processed:\n%s\n\n"+
				"Generate ONE dream-like insight (1-2 sentences, max 40 words). "+
				"It should be surprising, poetic, and suggest a new direction the gardener "+
				"hasn't considered. Combine themes in unexpected ways. "+
				"Speak as the garden's subconscious. No quotes, no explanation.",
			themeStr, essenceStr,
		),
		Temperature: temp,
		MaxTokens:   100,
	}, nil)
	if err != nil || len(result) <= 10 {
		return ""
	}
	if idx := strings.Index(result, "\n"); idx >= 0 {
		result = result[:idx]
	}
	return strings.TrimSpace(result)
}

// PlantDream turns an unplanted dream into a new seed, the gardener's
// way of acting on something that resonated while dreaming.
func (e *Engine) PlantDream(ctx context.Context, dreamID string) (*domain.Seed, error) {
	dreams, err := e.store.ListDreams(ctx, 0)
	if err != nil {
		return nil, err
	}
	var dream *domain.Dream
	for _, d := range dreams {
		if d.ID == dreamID {
			dream = d
			break
		}
	}
	if dream == nil || dream.Planted {
		return nil, nil
	}
	dream.Planted = true
	if err := e.store.SaveDream(ctx, dream); err != nil {
		return nil, err
	}

	seed, err := domain.NewSeed(uuid.New().String()[:16], dream.Content, dream.Content, append([]string{"dream"}, dream.Themes...), 0, 0, 0.8, 1.0, nil)
	if err != nil {
		return nil, err
	}
	seed.Energy = 8.0
	dream.SeedID = &seed.ID
	if err := e.store.SaveSeed(ctx, seed); err != nil {
		return nil, err
	}

	e.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "dream_planted", map[string]any{
		"dream_id":   dream.ID,
		"new_seed_id": seed.ID,
	}, "dreaming", domain.HormoneInstant))

	return seed, nil
}
