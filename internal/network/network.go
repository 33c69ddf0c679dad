// Package network implements the mycelium layer: symbiotic links between
// seeds that share themes, and the seasonal heartbeat that turns spring
// into summer into autumn into winter and back, modulating growth, decay,
// photosynthesis, dreaming and pollination along the way.
package network

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
)

// QuorumThreshold is the minimum number of seeds sharing a theme needed
// to trigger quorum sensing, mirroring core/symbiosis.py's
// QUORUM_THRESHOLD.
const QuorumThreshold = 3

// SimilarityThreshold is the minimum synergy score a seed pair must
// clear to form a symbiotic link, mirroring SIMILARITY_THRESHOLD.
const SimilarityThreshold = 0.4

// SeasonOrder is the fixed cycle seasons progress through.
var SeasonOrder = []string{"spring", "summer", "autumn", "winter"}

// SeasonBehavior captures how a season modulates the rest of the organism.
type SeasonBehavior struct {
	GrowthBonus            float64
	DecayModifier          float64
	PhotosynthesisModifier float64
	DreamingActive         bool
	PollinationActive      bool
	Description            string
}

var SeasonBehaviors = map[string]SeasonBehavior{
	"spring": {1.3, 0.5, 1.2, false, true, "rapid growth and new connections"},
	"summer": {1.0, 1.0, 1.5, false, true, "full bloom and abundant energy"},
	"autumn": {0.7, 0.8, 0.8, false, false, "harvest and consolidation"},
	"winter": {0.0, 0.2, 0.3, true, false, "dormancy and dreaming"},
}

// Organ is the network & seasons subsystem.
type Organ struct {
	bus   *hormonebus.Bus
	store storage.Store
	rules *ruleengine.Evaluator
	log   *slog.Logger
}

func New(bus *hormonebus.Bus, store storage.Store, rules *ruleengine.Evaluator, logger *slog.Logger) *Organ {
	return &Organ{bus: bus, store: store, rules: rules, log: logger.With("organ", "network")}
}

func nextSeason(current string) string {
	for i, s := range SeasonOrder {
		if s == current {
			return SeasonOrder[(i+1)%len(SeasonOrder)]
		}
	}
	return SeasonOrder[0]
}

// TurnSeason advances the garden state to the next season (or a forced
// one) and applies that season's structural effects to every seed.
func (o *Organ) TurnSeason(ctx context.Context, forced string) error {
	garden, err := o.store.GetGardenState(ctx)
	if err != nil {
		return err
	}

	next := forced
	if next == "" {
		next = nextSeason(garden.CurrentSeason)
	}
	garden.CurrentSeason = next
	garden.SeasonStartedAt = time.Now()

	seeds, err := o.store.ListAllSeeds(ctx)
	if err != nil {
		return err
	}

	switch next {
	case "spring":
		o.springAwakening(ctx, seeds)
	case "autumn":
		if err := o.autumnHarvest(ctx); err != nil {
			return err
		}
	case "winter":
		o.winterDormancy(ctx, seeds)
	}

	if err := o.store.SaveGardenState(ctx, garden); err != nil {
		return err
	}

	o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "season_change", map[string]any{
		"season": next,
	}, "network", domain.HormoneInstant))
	return nil
}

func (o *Organ) springAwakening(ctx context.Context, seeds []*domain.Seed) {
	for _, s := range seeds {
		if s.Status != domain.SeedStatusGrowing {
			continue
		}
		s.Energy *= 1.1
		s.Vitality += 0.1
		if s.Vitality > 2.0 {
			s.Vitality = 2.0
		}
		_ = o.store.SaveSeed(ctx, s)
	}
}

func (o *Organ) autumnHarvest(ctx context.Context) error {
	budding, err := o.store.ListSproutsByStatus(ctx, domain.SproutStatusBudding)
	if err != nil {
		return err
	}
	for _, sp := range budding {
		if sp.Energy < 0.5 {
			sp.Status = domain.SproutStatusWilting
			_ = o.store.SaveSprout(ctx, sp)
		}
	}
	return nil
}

func (o *Organ) winterDormancy(ctx context.Context, seeds []*domain.Seed) {
	for _, s := range seeds {
		if s.Status != domain.SeedStatusGrowing {
			continue
		}
		s.Vitality *= 0.9
		if s.Vitality < 0.3 {
			s.Vitality = 0.3
		}
		_ = o.store.SaveSeed(ctx, s)
	}
}

// ScanForSymbiosis looks for living seed pairs not yet linked whose
// synergy — a blend of embedding cosine similarity and theme Jaccard
// overlap — clears SimilarityThreshold, creating a new SymbioticLink
// classified as mutualism, commensalism, or parasitism.
func (o *Organ) ScanForSymbiosis(ctx context.Context) ([]*domain.SymbioticLink, error) {
	seeds, err := o.store.ListAllSeeds(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := o.store.ListSymbioticLinks(ctx)
	if err != nil {
		return nil, err
	}
	linked := make(map[[2]string]bool, len(existing))
	for _, l := range existing {
		linked[[2]string{l.SproutAID, l.SproutBID}] = true
	}

	var created []*domain.SymbioticLink
	for i := 0; i < len(seeds); i++ {
		if seeds[i].IsComposted {
			continue
		}
		for j := i + 1; j < len(seeds); j++ {
			if seeds[j].IsComposted {
				continue
			}
			a, b := seeds[i].ID, seeds[j].ID
			pairKey := [2]string{a, b}
			if b < a {
				pairKey = [2]string{b, a}
			}
			if linked[pairKey] {
				continue
			}

			shared := sharedThemes(seeds[i].Themes, seeds[j].Themes)
			synergy := round4(0.6*cosineSimilarity(seeds[i].Embedding, seeds[j].Embedding) + 0.4*themeOverlap(seeds[i].Themes, seeds[j].Themes))
			if synergy < SimilarityThreshold {
				continue
			}

			relType := classifyRelationship(synergy, seeds[i].Energy, seeds[j].Energy)
			link, err := domain.NewSymbioticLink(uuid.New().String()[:16], a, b, synergy, relType)
			if err != nil {
				continue
			}
			link.RelatedTags = shared
			if err := o.store.SaveSymbioticLink(ctx, link); err != nil {
				return nil, err
			}
			created = append(created, link)
			linked[pairKey] = true
		}
	}
	return created, nil
}

func sharedThemes(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	var shared []string
	for _, t := range b {
		if set[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

// cosineSimilarity mirrors core/symbiosis.py's _cosine_similarity: zero
// for empty, mismatched-length, or zero-magnitude vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	magA, magB = math.Sqrt(magA), math.Sqrt(magB)
	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (magA * magB)
}

// themeOverlap mirrors _theme_overlap: Jaccard similarity between two
// theme sets.
func themeOverlap(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	intersection := 0
	union := make(map[string]bool, len(setA)+len(setB))
	for t := range setA {
		union[t] = true
		if setB[t] {
			intersection++
		}
	}
	for t := range setB {
		union[t] = true
	}
	if len(union) == 0 {
		return 0.0
	}
	return float64(intersection) / float64(len(union))
}

// classifyRelationship mirrors _classify_relationship.
func classifyRelationship(synergy, energyA, energyB float64) string {
	switch {
	case synergy > 0.6:
		return domain.RelationshipMutualism
	case math.Abs(energyA-energyB) > math.Max(energyA, energyB)*0.5:
		return domain.RelationshipCommensalism
	case synergy < 0.1:
		return domain.RelationshipParasitism
	default:
		return domain.RelationshipMutualism
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// QuorumReached reports whether enough living (non-composted) seeds share
// a theme to justify treating it as an emergent, garden-wide priority.
// The threshold is the fixed expression `count >= 3`, evaluated through
// the rule engine; totalLivingSeeds is not read.
func (o *Organ) QuorumReached(ctx context.Context, theme string, totalLivingSeeds int) (bool, error) {
	seeds, err := o.store.ListAllSeeds(ctx)
	if err != nil {
		return false, err
	}
	count := 0
	for _, s := range seeds {
		if s.IsComposted {
			continue
		}
		for _, t := range s.Themes {
			if t == theme {
				count++
				break
			}
		}
	}
	env := map[string]any{
		"count": float64(count),
	}
	reached, err := o.rules.EvalBool(`count >= 3`, env)
	if err != nil {
		return false, err
	}
	if reached {
		o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "quorum_reached", map[string]any{
			"theme": theme,
			"count": count,
		}, "network", domain.HormoneInstant))
	}
	return reached, nil
}

// ShareNutrients flows surplus energy along every symbiotic link,
// weighted by the link's synergy strength, whenever one side holds
// more than 1.5x the other's energy. Returns the total energy moved.
func (o *Organ) ShareNutrients(ctx context.Context) (float64, error) {
	links, err := o.store.ListSymbioticLinks(ctx)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return 0, nil
	}

	seeds, err := o.store.ListAllSeeds(ctx)
	if err != nil {
		return 0, err
	}
	seedMap := make(map[string]*domain.Seed, len(seeds))
	for _, s := range seeds {
		if !s.IsComposted {
			seedMap[s.ID] = s
		}
	}

	var total float64
	touched := make(map[string]*domain.Seed)
	for _, link := range links {
		seedA, seedB := seedMap[link.SproutAID], seedMap[link.SproutBID]
		if seedA == nil || seedB == nil {
			continue
		}

		var transfer float64
		switch {
		case seedA.Energy > seedB.Energy*1.5:
			transfer = (seedA.Energy - seedB.Energy) * 0.1 * link.Strength
			seedA.Energy -= transfer
			seedB.Energy += transfer
		case seedB.Energy > seedA.Energy*1.5:
			transfer = (seedB.Energy - seedA.Energy) * 0.1 * link.Strength
			seedB.Energy -= transfer
			seedA.Energy += transfer
		default:
			continue
		}

		link.NutrientFlow += transfer
		total += transfer
		touched[seedA.ID] = seedA
		touched[seedB.ID] = seedB
		if err := o.store.SaveSymbioticLink(ctx, link); err != nil {
			return 0, err
		}
	}

	for _, s := range touched {
		if err := o.store.SaveSeed(ctx, s); err != nil {
			return 0, err
		}
	}
	return round4(total), nil
}

// Pollinate broadcasts a just-harvested seed's essence as pollen:
// living seeds with PARTIAL theme overlap — not none, not total —
// absorb a small energy boost proportional to how much they share.
// Returns the number of seeds pollinated.
func (o *Organ) Pollinate(ctx context.Context, completedSeed *domain.Seed) (int, error) {
	completedThemes := make(map[string]bool, len(completedSeed.Themes))
	for _, t := range completedSeed.Themes {
		completedThemes[t] = true
	}
	if len(completedThemes) == 0 {
		return 0, nil
	}

	seeds, err := o.store.ListAllSeeds(ctx)
	if err != nil {
		return 0, err
	}

	pollinated := 0
	for _, s := range seeds {
		if s.IsComposted || s.ID == completedSeed.ID || s.Status == domain.SeedStatusHarvested {
			continue
		}
		overlap := 0
		for _, t := range s.Themes {
			if completedThemes[t] {
				overlap++
			}
		}
		if overlap == 0 || overlap >= len(completedThemes) {
			continue
		}

		boost := 0.5 * (float64(overlap) / float64(len(completedThemes)))
		s.Energy += round4(boost)
		if err := o.store.SaveSeed(ctx, s); err != nil {
			return 0, err
		}
		pollinated++
	}

	if pollinated > 0 {
		o.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "pollination", map[string]any{
			"source_seed_id":   completedSeed.ID,
			"pollinated_count": pollinated,
		}, "network", domain.HormoneInstant))
		o.log.Info("pollinated seeds from completed seed", "source_seed_id", completedSeed.ID, "pollinated_count", pollinated)
	}

	return pollinated, nil
}

// PollinationActive reports whether the given season allows cross-seed
// pollination of symbiotic links.
func PollinationActive(season string) bool {
	return SeasonBehaviors[season].PollinationActive
}
