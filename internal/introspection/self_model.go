package introspection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// TraitDimensions are the personality axes the self-model computes from
// behavior patterns. They're emergent, never set directly.
var TraitDimensions = []string{
	"nurturing", "adventurous", "resilient", "contemplative",
	"generous", "cautious", "creative",
}

type selfStats struct {
	totalSeeds, harvested, composted, growing int
	harvestRate, compostRate                  float64
	totalDreams, plantedDreams                int
	dreamPlantRate, dreamAccuracy             float64
	totalWounds, severeWounds                 int
	coreMemories, totalMemories               int
	totalPredictions, correctPredictions      int
	predictionAccuracy                        float64
	wisdom, antifragility, totalEnergy        float64
	season                                    string
	cycleCount                                int64
}

// SelfModel is the organism's metacognitive capstone: it watches its own
// decisions accumulate and periodically reports back who it has become.
type SelfModel struct {
	bus   *hormonebus.Bus
	store storage.Store
	model textmodel.TextModel
	log   *slog.Logger

	mu       sync.Mutex
	snapshot *domain.SelfModelSnapshot
}

func NewSelfModel(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, logger *slog.Logger) *SelfModel {
	return &SelfModel{bus: bus, store: store, model: model, log: logger.With("organ", "self_model")}
}

// Introspect runs a full self-assessment: gather behavioral stats, derive
// personality traits, flag biases, compute theme affinities and decision
// accuracy, then ask the text model for a first-person identity narrative.
// predictionAccuracy comes from the PredictionEngine running alongside it;
// pass 0 to fall back to the neutral 0.5 default.
func (sm *SelfModel) Introspect(ctx context.Context, predictionAccuracy float64) (*domain.SelfModelSnapshot, error) {
	stats, err := sm.gatherStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.predictionAccuracy = predictionAccuracy
	traits := computeTraits(stats)
	biases := detectBiases(stats, traits)

	affinities, err := sm.computeThemeAffinities(ctx)
	if err != nil {
		return nil, err
	}
	decisionAccuracy, err := sm.computeDecisionAccuracy(ctx)
	if err != nil {
		return nil, err
	}

	narrative := sm.generateIdentityNarrative(ctx, stats, traits, biases, affinities)

	var overallDecisionAccuracy float64
	if len(decisionAccuracy) > 0 {
		var sum float64
		for _, v := range decisionAccuracy {
			sum += v
		}
		overallDecisionAccuracy = sum / float64(len(decisionAccuracy))
	}

	snap := &domain.SelfModelSnapshot{
		ID:                uuid.New().String()[:12],
		HarvestRate:       round3(stats.harvestRate),
		CompostRate:       round3(stats.compostRate),
		DreamAccuracy:     round3(stats.dreamAccuracy),
		DecisionAccuracy:  round3(overallDecisionAccuracy),
		ThemeAffinities:   affinities,
		PersonalityTraits: traits,
		BiasWarnings:      biases,
		IdentityNarrative: narrative,
	}
	if err := sm.store.SaveSelfModelSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	sm.mu.Lock()
	sm.snapshot = snap
	sm.mu.Unlock()

	sm.bus.Signal(ctx, "self_model_updated", map[string]any{
		"traits":       traits,
		"biases":       biases,
		"harvest_rate": round3(stats.harvestRate),
		"identity":     truncate(narrative, 200),
	}, "self_model", domain.HormoneInstant, 0)

	sm.log.Info("self model updated", "harvest_rate", stats.harvestRate, "compost_rate", stats.compostRate, "biases", len(biases))
	return snap, nil
}

func (sm *SelfModel) gatherStats(ctx context.Context) (selfStats, error) {
	var stats selfStats

	seeds, err := sm.store.ListAllSeeds(ctx)
	if err != nil {
		return stats, err
	}
	stats.totalSeeds = len(seeds)
	for _, s := range seeds {
		switch {
		case s.Status == domain.SeedStatusHarvested:
			stats.harvested++
		case s.IsComposted:
			stats.composted++
		case s.Status == domain.SeedStatusPlanted || s.Status == domain.SeedStatusGrowing:
			stats.growing++
		}
	}
	if stats.totalSeeds > 0 {
		stats.harvestRate = float64(stats.harvested) / float64(stats.totalSeeds)
		stats.compostRate = float64(stats.composted) / float64(stats.totalSeeds)
	}

	dreams, err := sm.store.ListDreams(ctx, 0)
	if err != nil {
		return stats, err
	}
	stats.totalDreams = len(dreams)
	for _, d := range dreams {
		if d.Planted {
			stats.plantedDreams++
		}
	}
	if stats.totalDreams > 0 {
		stats.dreamPlantRate = float64(stats.plantedDreams) / float64(stats.totalDreams)
	}
	stats.dreamAccuracy = stats.dreamPlantRate * 0.5

	wounds, err := sm.store.ListRecentWounds(ctx, 0)
	if err != nil {
		return stats, err
	}
	stats.totalWounds = len(wounds)
	for _, w := range wounds {
		if w.Severity >= 0.6 {
			stats.severeWounds++
		}
	}

	memories, err := sm.store.ListEpisodicMemories(ctx)
	if err != nil {
		return stats, err
	}
	stats.totalMemories = len(memories)
	for _, m := range memories {
		if m.IsCoreMemory {
			stats.coreMemories++
		}
	}

	// Resolved-prediction accuracy lives on the PredictionEngine itself
	// (only unresolved predictions are queryable from the store), so the
	// self-model's prediction-related traits fall back to their defaults
	// unless a caller wires PredictionEngine.Accuracy in separately.

	garden, err := sm.store.GetGardenState(ctx)
	if err == nil && garden != nil {
		stats.wisdom = garden.WisdomScore
		stats.season = garden.CurrentSeason
		stats.cycleCount = garden.TickCount
		stats.totalEnergy = garden.TotalEnergy
		stats.antifragility = garden.AntifragilityScore
	}

	return stats, nil
}

func computeTraits(s selfStats) map[string]float64 {
	traits := make(map[string]float64, len(TraitDimensions))

	traits["nurturing"] = minF(s.harvestRate*0.6+minF(float64(s.growing)/10, 0.4), 1.0)
	traits["adventurous"] = minF(s.dreamPlantRate*0.8+0.2, 1.0)

	recovery := 0.5
	if s.totalWounds > 0 {
		recovery = 1.0 - float64(s.severeWounds)/float64(s.totalWounds)
	}
	traits["resilient"] = minF(s.antifragility*0.3+recovery*0.5+0.2, 1.0)

	predAcc := s.predictionAccuracy
	if predAcc == 0 {
		predAcc = 0.5
	}
	traits["contemplative"] = minF(minF(float64(s.coreMemories)/5, 0.4)+predAcc*0.4+0.2, 1.0)

	energy := s.totalEnergy
	if energy == 0 {
		energy = 100
	}
	seeds := s.totalSeeds
	if seeds == 0 {
		seeds = 1
	}
	energyPerSeed := energy / float64(seeds)
	traits["generous"] = minF(maxF(1.0-energyPerSeed/50, 0.1), 1.0)

	traits["cautious"] = minF(s.compostRate*0.8+0.1, 1.0)
	traits["creative"] = minF(minF(float64(s.totalDreams)/10, 0.5)+0.3, 1.0)

	for k, v := range traits {
		traits[k] = round3(v)
	}
	return traits
}

func detectBiases(s selfStats, traits map[string]float64) []string {
	var biases []string
	if s.compostRate > 0.5 {
		biases = append(biases, "I compost too aggressively — many seeds never get a chance to grow")
	}
	if s.harvestRate < 0.1 && s.totalSeeds > 5 {
		biases = append(biases, "Very few seeds reach harvest — I may be too demanding or not nurturing enough")
	}
	if s.dreamPlantRate < 0.1 && s.totalDreams > 5 {
		biases = append(biases, "I rarely plant my dreams — I may be too conservative with creative insights")
	}
	if traits["cautious"] > 0.7 && traits["adventurous"] < 0.3 {
		biases = append(biases, "I'm very cautious but not adventurous — I might be playing it too safe")
	}
	if s.predictionAccuracy != 0 && s.predictionAccuracy < 0.3 {
		biases = append(biases, "My predictions are often wrong — I may have a distorted self-image")
	}
	if s.coreMemories == 0 && s.totalMemories > 10 {
		biases = append(biases, "No core memories have formed — I may not be reflecting deeply enough")
	}
	return biases
}

func (sm *SelfModel) computeThemeAffinities(ctx context.Context) (map[string]float64, error) {
	seeds, err := sm.store.ListAllSeeds(ctx)
	if err != nil {
		return nil, err
	}

	type counts struct{ total, harvested int }
	themeCounts := make(map[string]*counts)
	for _, seed := range seeds {
		for _, theme := range seed.Themes {
			c, ok := themeCounts[theme]
			if !ok {
				c = &counts{}
				themeCounts[theme] = c
			}
			c.total++
			if seed.Status == domain.SeedStatusHarvested {
				c.harvested++
			}
		}
	}

	affinities := make(map[string]float64)
	for theme, c := range themeCounts {
		if c.total >= 2 {
			affinities[theme] = round3(float64(c.harvested) / float64(c.total))
		}
	}
	return affinities, nil
}

func (sm *SelfModel) computeDecisionAccuracy(ctx context.Context) (map[string]float64, error) {
	// Resolved predictions aren't separately queryable from the store once
	// resolved (only unresolved ones are listed), so no per-type decision
	// accuracy is derived: the map is always empty.
	return map[string]float64{}, nil
}

func (sm *SelfModel) generateIdentityNarrative(ctx context.Context, s selfStats, traits map[string]float64, biases []string, affinities map[string]float64) string {
	if sm.model == nil {
		return ""
	}

	type kv struct {
		k string
		v float64
	}
	var sortedTraits []kv
	for k, v := range traits {
		sortedTraits = append(sortedTraits, kv{k, v})
	}
	sort.Slice(sortedTraits, func(i, j int) bool { return sortedTraits[i].v > sortedTraits[j].v })
	if len(sortedTraits) > 3 {
		sortedTraits = sortedTraits[:3]
	}
	var topTraits []string
	for _, t := range sortedTraits {
		topTraits = append(topTraits, fmt.Sprintf("%s=%.2f", t.k, t.v))
	}

	var sortedThemes []kv
	for k, v := range affinities {
		sortedThemes = append(sortedThemes, kv{k, v})
	}
	sort.Slice(sortedThemes, func(i, j int) bool { return sortedThemes[i].v > sortedThemes[j].v })
	if len(sortedThemes) > 3 {
		sortedThemes = sortedThemes[:3]
	}
	themeText := "still discovering"
	if len(sortedThemes) > 0 {
		var parts []string
		for _, t := range sortedThemes {
			parts = append(parts, fmt.Sprintf("%s=%.0f%%", t.k, t.v*100))
		}
		themeText = strings.Join(parts, ", ")
	}

	biasText := "none detected yet"
	if len(biases) > 0 {
		biasText = strings.Join(biases, "; ")
	}

	prompt := fmt.Sprintf(
		"You are a living garden organism reflecting on who you are.\n\n"+
			"Stats: %d seeds planted, %d harvested, %d composted. "+
			"%d dreams, %d wounds. Cycle %d, currently %s.\n"+
			"Strongest traits: %s.\n"+
			"Best themes: %s.\n"+
			"Known biases: %s.\n\n"+
			"In 2-3 sentences, describe who you are — your personality, your strengths, "+
			"your growing edges. Speak in first person as the garden. Be honest and self-aware.",
		s.totalSeeds, s.harvested, s.composted, s.totalDreams, s.totalWounds, s.cycleCount, s.season,
		strings.Join(topTraits, ", "), themeText, biasText)

	result, err := sm.model.Complete(ctx, textmodel.Request{
		Organ: "self_model", Phase: "identity_narrative",
		System: "You are the self-reflective consciousness of a living garden organism. " +
			"Speak authentically about who you are. Be concise and genuine.",
		Prompt:      prompt,
		Temperature: 0.5,
		MaxTokens:   200,
	}, nil)
	if err != nil {
		sm.log.Debug("identity narrative generation failed", "error", err)
		return ""
	}
	if len(strings.TrimSpace(result)) < 20 {
		return ""
	}
	return strings.TrimSpace(result)
}

// Latest returns the most recently computed snapshot, falling back to the
// store if the process hasn't run Introspect since boot.
func (sm *SelfModel) Latest(ctx context.Context) (*domain.SelfModelSnapshot, error) {
	sm.mu.Lock()
	snap := sm.snapshot
	sm.mu.Unlock()
	if snap != nil {
		return snap, nil
	}
	return sm.store.GetLatestSelfModelSnapshot(ctx)
}
