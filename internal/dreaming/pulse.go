package dreaming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// wisdomMilestones are harvested-seed counts worth announcing with their
// own hormone.
var wisdomMilestones = map[int]bool{1: true, 5: true, 10: true, 25: true, 50: true, 100: true}

// Consciousness is the organism's self-awareness layer: it surveys every
// other organ and produces a natural-language pulse report.
type Consciousness struct {
	bus   *hormonebus.Bus
	store storage.Store
	model textmodel.TextModel
	log   *slog.Logger
}

func NewConsciousness(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, logger *slog.Logger) *Consciousness {
	return &Consciousness{bus: bus, store: store, model: model, log: logger.With("organ", "consciousness")}
}

// Pulse surveys thriving/struggling/healing/dreaming seeds, detects
// emergent themes, calculates wisdom, and persists a PulseReport.
func (c *Consciousness) Pulse(ctx context.Context) (*domain.PulseReport, error) {
	state, err := c.store.GetGardenState(ctx)
	if err != nil {
		return nil, err
	}

	thriving, err := c.findThriving(ctx)
	if err != nil {
		return nil, err
	}
	struggling, err := c.findStruggling(ctx)
	if err != nil {
		return nil, err
	}
	healing, err := c.findHealing(ctx, state)
	if err != nil {
		return nil, err
	}
	dreamingThemes, err := c.findDreamingThemes(ctx)
	if err != nil {
		return nil, err
	}
	emergent, err := c.detectEmergent(ctx)
	if err != nil {
		return nil, err
	}

	summary := c.llmCompose(ctx, state, thriving, struggling, healing, dreamingThemes, emergent)
	if summary == "" {
		summary = composeSummary(state, thriving, struggling, healing, dreamingThemes, emergent)
	}

	wisdom, err := c.calculateWisdom(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.PulseReport{
		ID:                uuid.New().String()[:16],
		Summary:           summary,
		ThrivingSeedIDs:   ids(thriving),
		StrugglingSeedIDs: ids(struggling),
		HealingSeedIDs:    healingIDs(healing),
		DreamingThemes:    dreamingThemes,
		EmergentThemes:    emergent,
		WisdomScore:       wisdom,
		CreatedAt:         time.Now(),
	}
	if err := c.store.SavePulseReport(ctx, report); err != nil {
		return nil, err
	}

	prevWisdom := state.WisdomScore
	state.WisdomScore = wisdom
	now := time.Now()
	state.LastPulseAt = &now
	if err := c.store.SaveGardenState(ctx, state); err != nil {
		return nil, err
	}

	c.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "pulse_generated", map[string]any{
		"report_id": report.ID,
		"wisdom":    wisdom,
	}, "consciousness", domain.HormoneInstant))

	if wisdom > 0 && int(wisdom) > int(prevWisdom) {
		harvested, err := c.store.ListSeedsByStatus(ctx, domain.SeedStatusHarvested)
		if err == nil && wisdomMilestones[len(harvested)] {
			c.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "wisdom_milestone", map[string]any{
				"wisdom":          wisdom,
				"completed_seeds": len(harvested),
			}, "consciousness", domain.HormoneInstant))
		}
	}

	c.log.Info("pulse generated", "wisdom", wisdom, "thriving", len(thriving), "struggling", len(struggling))
	return report, nil
}

func (c *Consciousness) findThriving(ctx context.Context) ([]*domain.Seed, error) {
	seeds, err := c.store.ListSeedsByStatus(ctx, domain.SeedStatusGrowing)
	if err != nil {
		return nil, err
	}
	var out []*domain.Seed
	for _, s := range seeds {
		if !s.IsComposted && s.Energy > 10.0 {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Consciousness) findStruggling(ctx context.Context) ([]*domain.Seed, error) {
	planted, err := c.store.ListSeedsByStatus(ctx, domain.SeedStatusPlanted)
	if err != nil {
		return nil, err
	}
	growing, err := c.store.ListSeedsByStatus(ctx, domain.SeedStatusGrowing)
	if err != nil {
		return nil, err
	}
	var out []*domain.Seed
	for _, s := range append(planted, growing...) {
		if !s.IsComposted && s.Energy < 3.0 {
			out = append(out, s)
		}
	}
	return out, nil
}

// findHealing reports wounds the healer organ closed since the last
// pulse. The healer heals wounds the instant it triages them (there is
// no unhealed backlog by design — see internal/healing), so "recently
// healed" is simply "created since the last pulse".
func (c *Consciousness) findHealing(ctx context.Context, state *domain.GardenState) ([]*domain.WoundRecord, error) {
	recent, err := c.store.ListRecentWounds(ctx, 25)
	if err != nil {
		return nil, err
	}
	if state == nil || state.LastPulseAt == nil {
		return recent, nil
	}
	var out []*domain.WoundRecord
	for _, w := range recent {
		if w.CreatedAt.After(*state.LastPulseAt) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *Consciousness) findDreamingThemes(ctx context.Context) ([]string, error) {
	dreams, err := c.store.ListDreams(ctx, 5)
	if err != nil {
		return nil, err
	}
	var themes []string
	for _, d := range dreams {
		if !d.Planted {
			themes = append(themes, d.Themes...)
		}
	}
	return themes, nil
}

func (c *Consciousness) detectEmergent(ctx context.Context) ([]string, error) {
	seeds, err := c.store.ListAllSeeds(ctx)
	if err != nil {
		return nil, err
	}
	themeEnergy := map[string]float64{}
	themeCount := map[string]int{}
	for _, s := range seeds {
		if s.IsComposted {
			continue
		}
		for _, t := range s.Themes {
			themeEnergy[t] += s.Energy
			themeCount[t]++
		}
	}
	if len(themeEnergy) == 0 {
		return nil, nil
	}
	var total float64
	for _, e := range themeEnergy {
		total += e
	}
	avg := total / float64(len(themeEnergy))

	var emergent []string
	for theme, e := range themeEnergy {
		if e > avg*1.5 && themeCount[theme] >= 2 {
			emergent = append(emergent, fmt.Sprintf("'%s' is surging with %.1f energy across %d seeds", theme, e, themeCount[theme]))
		}
	}
	return emergent, nil
}

// calculateWisdom folds completed seeds, healed wounds, and planted
// dreams into a single accumulating score.
func (c *Consciousness) calculateWisdom(ctx context.Context) (float64, error) {
	harvested, err := c.store.ListSeedsByStatus(ctx, domain.SeedStatusHarvested)
	if err != nil {
		return 0, err
	}
	dreams, err := c.store.ListDreams(ctx, 0)
	if err != nil {
		return 0, err
	}
	plantedDreams := 0
	for _, d := range dreams {
		if d.Planted {
			plantedDreams++
		}
	}
	wounds, err := c.store.ListRecentWounds(ctx, 0)
	if err != nil {
		return 0, err
	}
	healedWounds := 0
	for _, w := range wounds {
		if w.HealedAt != nil {
			healedWounds++
		}
	}
	wisdom := float64(len(harvested))*1.0 + float64(healedWounds)*0.5 + float64(plantedDreams)*0.3
	return round4(wisdom), nil
}

func (c *Consciousness) llmCompose(ctx context.Context, state *domain.GardenState, thriving, struggling []*domain.Seed, healing []*domain.WoundRecord, dreaming, emergent []string) string {
	if c.model == nil {
		return ""
	}
	var facts []string
	if state != nil {
		facts = append(facts, fmt.Sprintf("Season: %s. Wisdom: %.1f.", state.CurrentSeason, state.WisdomScore))
	}
	facts = append(facts, fmt.Sprintf("%d seeds thriving, %d struggling, %d wounds recently healed.", len(thriving), len(struggling), len(healing)))
	facts = append(facts, fmt.Sprintf("%d dream themes waiting to be planted.", len(dreaming)))
	if len(emergent) > 0 {
		facts = append(facts, "Emergent patterns: "+strings.Join(emergent, "; "))
	}

	result, err := c.model.Complete(ctx, textmodel.Request{
		Organ:  "consciousness",
		Phase:  "composing_pulse",
		System: "You are the self-awareness pulse of a living garden. Speak as the garden itself.",
		Prompt: "You are the consciousness of a living garden organism. " +
			"Based on these vital signs, compose a 2-3 sentence awareness report. " +
			"Speak in first person as the garden. Be poetic but informative. " +
			"Mention specific observations. No more than 60 words.\n\nVital signs:\n" + strings.Join(facts, "\n"),
		Temperature: 0.6,
		MaxTokens:   120,
	}, nil)
	if err != nil || len(result) <= 20 {
		return ""
	}
	if idx := strings.Index(result, "\n"); idx >= 0 {
		result = result[:idx]
	}
	return strings.TrimSpace(result)
}

func composeSummary(state *domain.GardenState, thriving, struggling []*domain.Seed, healing []*domain.WoundRecord, dreaming, emergent []string) string {
	var parts []string
	if state != nil {
		parts = append(parts, fmt.Sprintf("The garden breathes in %s. Wisdom: %.1f.", state.CurrentSeason, state.WisdomScore))
	}
	if len(thriving) > 0 {
		parts = append(parts, fmt.Sprintf("%d seed%s thriving with abundant energy.", len(thriving), plural(len(thriving))))
	}
	if len(struggling) > 0 {
		parts = append(parts, fmt.Sprintf("%d seed%s struggling, they could use watering.", len(struggling), plural(len(struggling))))
	}
	if len(healing) > 0 {
		parts = append(parts, fmt.Sprintf("%d recent wound%s healed, the organism grows stronger.", len(healing), plural(len(healing))))
	}
	if len(dreaming) > 0 {
		parts = append(parts, fmt.Sprintf("%d dream theme%s waiting to be planted.", len(dreaming), plural(len(dreaming))))
	}
	if len(emergent) > 0 {
		parts = append(parts, "Emergent patterns detected: "+strings.Join(emergent, "; "))
	}
	if len(parts) == 0 {
		parts = append(parts, "The garden is quiet. Plant a seed to begin.")
	}
	return strings.Join(parts, " ")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func ids(seeds []*domain.Seed) []string {
	out := make([]string, len(seeds))
	for i, s := range seeds {
		out[i] = s.ID
	}
	return out
}

func healingIDs(wounds []*domain.WoundRecord) []string {
	out := make([]string, len(wounds))
	for i, w := range wounds {
		out[i] = w.ID
	}
	return out
}
