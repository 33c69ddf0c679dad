package domain

import (
	"time"

	domainerrors "github.com/w0rd-garden/w0rd/internal/domain/errors"
)

// Seed statuses. A seed moves planted -> growing -> harvested|composted.
const (
	SeedStatusPlanted   = "planted"
	SeedStatusGrowing   = "growing"
	SeedStatusHarvested = "harvested"
	SeedStatusComposted = "composted"
)

// Sprout statuses.
const (
	SproutStatusBudding   = "budding"
	SproutStatusWilting   = "wilting"
	SproutStatusHarvested = "harvested"
	SproutStatusComposted = "composted"
)

// Agent lifecycle statuses, mirrored from the agent runtime.
const (
	AgentStatusAwaitingApproval = "awaiting_approval"
	AgentStatusIdle             = "idle"
	AgentStatusSpawning         = "spawning"
	AgentStatusWorking          = "working"
	AgentStatusCompleted        = "completed"
	AgentStatusRetired          = "retired"
)

// GardenState is the single global singleton row tracking the organism's
// aggregate vitals. There is exactly one row, identified by GardenSingletonID.
const GardenSingletonID = "garden"

type GardenState struct {
	ID                 string
	TotalEnergy        float64
	WisdomScore        float64
	AntifragilityScore float64
	LastPulseAt        *time.Time
	CurrentSeason      string
	SeasonStartedAt    time.Time
	TickCount          int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Gardener is the sole human tender of the garden. It accumulates a
// pheromone bias per theme and a rhythm profile per hour of day, both
// learned from interaction history, plus an EMA preference vector.
type Gardener struct {
	ID               string
	InteractionCount int
	PheromoneTrails  map[string]int
	RhythmProfile    map[int]int
	PreferenceVector map[string]float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Seed is a planted intention: raw input text distilled into an essence,
// themes, tone, and an ethical score that gates everything downstream.
type Seed struct {
	ID           string
	Content      string
	Essence      string
	Themes       []string
	Valence      float64
	Arousal      float64
	Resonance    float64
	EthicalScore float64
	EthicalTags  []string
	Energy       float64
	Vitality     float64
	Status       string
	IsComposted  bool
	// Embedding is a deterministic theme-frequency vector over
	// intent.ThemeLexicon's theme set, computed at planting time. It
	// stands in for a learned embedding model, which this codebase has
	// none of; see DESIGN.md.
	Embedding   []float64
	CreatedAt   time.Time
	HarvestedAt *time.Time
	ComposedAt  *time.Time
}

// NewSeed validates and constructs a Seed in its initial planted state.
func NewSeed(id, content, essence string, themes []string, valence, arousal, resonance, ethicalScore float64, ethicalTags []string) (*Seed, error) {
	if content == "" {
		return nil, domainerrors.NewValidationError("content", "seed content must not be empty")
	}
	return &Seed{
		ID:           id,
		Content:      content,
		Essence:      essence,
		Themes:       themes,
		Valence:      valence,
		Arousal:      arousal,
		Resonance:    resonance,
		EthicalScore: ethicalScore,
		EthicalTags:  ethicalTags,
		Energy:       5.0,
		Vitality:     1.0,
		Status:       SeedStatusPlanted,
		CreatedAt:    time.Now(),
	}, nil
}

// Compost marks the seed composted and enforces the is_composted<=>status
// invariant: a composted seed always carries SeedStatusComposted and vice
// versa within this constructor's call sites.
func (s *Seed) Compost(at time.Time) {
	s.Status = SeedStatusComposted
	s.IsComposted = true
	s.ComposedAt = &at
}

// Sprout is a fractal decomposition node grown from a Seed: intention,
// goal, task, or action depending on Depth.
type Sprout struct {
	ID             string
	SeedID         string
	ParentSproutID *string
	Depth          int
	Label          string
	Description    string
	Energy         float64
	Pressure       float64
	EthicalScore   float64
	Resonance      float64
	Status         string
	ApoptosisAt    *time.Time
	CreatedAt      time.Time
}

// Symbiotic relationship classifications, mirroring core/symbiosis.py's
// _classify_relationship.
const (
	RelationshipMutualism   = "mutualism"
	RelationshipCommensalism = "commensalism"
	RelationshipParasitism  = "parasitism"
)

// SymbioticLink records a learned association between two seeds. Field
// names preserve the legacy sprout_a_id/sprout_b_id columns, which in
// fact store seed IDs, not sprout IDs; see DESIGN.md.
type SymbioticLink struct {
	ID               string
	SproutAID        string
	SproutBID        string
	Strength         float64
	RelationshipType string
	NutrientFlow     float64
	RelatedTags      []string
	CreatedAt        time.Time
}

// NewSymbioticLink canonicalizes the pair so (a, b) and (b, a) collapse
// to the same link: the lexicographically smaller ID always occupies
// SproutAID.
func NewSymbioticLink(id, seedA, seedB string, strength float64, relationshipType string) (*SymbioticLink, error) {
	if seedA == "" || seedB == "" {
		return nil, domainerrors.NewValidationError("seed_ids", "symbiotic link requires two seed ids")
	}
	if seedA == seedB {
		return nil, domainerrors.NewValidationError("seed_ids", "a seed cannot be symbiotically linked to itself")
	}
	if seedB < seedA {
		seedA, seedB = seedB, seedA
	}
	return &SymbioticLink{
		ID:               id,
		SproutAID:        seedA,
		SproutBID:        seedB,
		Strength:         strength,
		RelationshipType: relationshipType,
		CreatedAt:        time.Now(),
	}, nil
}

// EthicalMemory is the immune system's antibody store: a pattern hash,
// the dimension it violates, and a strength that grows with repeated
// hits and decays on reported false positives.
type EthicalMemory struct {
	ID          string
	PatternHash string
	Dimension   string
	Strength    float64
	HitCount    int
	LastHitAt   time.Time
	CreatedAt   time.Time
}

// Dream is generated during the dream phase by recombining the themes of
// completed (harvested or composted) seeds. IsLucid marks a dream whose
// novelty score fell below 0.5; SeedID is set once the dream is planted.
type Dream struct {
	ID        string
	SeedID    *string
	Content   string
	Themes    []string
	IsLucid   bool
	Planted   bool
	CreatedAt time.Time
}

// PulseReport is the periodic narrative summary of garden health.
type PulseReport struct {
	ID                string
	Summary           string
	ThrivingSeedIDs   []string
	StrugglingSeedIDs []string
	HealingSeedIDs    []string
	DreamingThemes    []string
	EmergentThemes    []string
	WisdomScore       float64
	CreatedAt         time.Time
}

// WoundRecord tracks damage to a seed and the scar the healer organ left
// behind while tending it.
type WoundRecord struct {
	ID                  string
	SeedID              string
	Severity            float64
	Cause               string
	HealingAction       string
	ScarLesson          string
	AntifragilityGained float64
	HealedAt            *time.Time
	CreatedAt           time.Time
}

// AgentNode is a spawned worker in the agent runtime.
type AgentNode struct {
	ID              string
	Type            string
	Name            string
	SeedID          *string
	ParentID        *string
	TaskDescription string
	Capability      map[string]any
	Status          string
	Context         map[string]any
	Result          string
	Error           string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	RetiredAt       *time.Time
	CreatedAt       time.Time
}

// EmotionalState holds the organism's current affective scalars. Field
// set reconstructed from usage in consciousness/memory/inner_voice; see
// DESIGN.md for the reconstruction rationale.
type EmotionalState struct {
	ID        string
	Joy       float64
	Grief     float64
	Anxiety   float64
	Curiosity float64
	Pride     float64
	Wonder    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Intensity is the overall magnitude of the emotional state, used to
// amplify memory formation and modulate inner-voice temperature.
func (e *EmotionalState) Intensity() float64 {
	max := e.Joy
	for _, v := range []float64{e.Grief, e.Anxiety, e.Curiosity, e.Pride, e.Wonder} {
		if v > max {
			max = v
		}
	}
	return max
}

// InnerThought is a single utterance of the inner voice. Field set
// reconstructed from usage in inner_voice.py; see DESIGN.md.
type InnerThought struct {
	ID               string
	ThoughtType      string
	Content          string
	EmotionalContext map[string]float64
	Trigger          string
	Depth            int
	Salience         float64
	CreatedAt        time.Time
}

// EpisodicMemory is a single autobiographical memory entry. Field set
// reconstructed from usage in memory.py; see DESIGN.md.
type EpisodicMemory struct {
	ID                 string
	Narrative          string
	EventType          string
	EmotionalValence   float64
	EmotionalIntensity float64
	Themes             []string
	RelatedSeedIDs     []string
	IsCoreMemory       bool
	RecallCount        int
	LastRecalledAt     *time.Time
	CreatedAt          time.Time
}

// Prediction is a single forward guess made by the prediction engine,
// resolved later against what actually happened. Field set
// reconstructed from usage in prediction.py; see DESIGN.md.
type Prediction struct {
	ID               string
	PredictionType   string
	SubjectID        string
	PredictedOutcome string
	ActualOutcome    string
	Confidence       float64
	SurpriseScore    float64
	Resolved         bool
	ResolvedAt       *time.Time
	CreatedAt        time.Time
}

// SelfModelSnapshot is a periodic introspective self-portrait. Field set
// reconstructed from usage in self_model.py; see DESIGN.md.
type SelfModelSnapshot struct {
	ID                string
	HarvestRate       float64
	CompostRate       float64
	DreamAccuracy     float64
	DecisionAccuracy  float64
	ThemeAffinities   map[string]float64
	PersonalityTraits map[string]float64
	BiasWarnings      []string
	IdentityNarrative string
	CreatedAt         time.Time
}

// HormoneLog is the persisted audit trail of dispatched hormones.
type HormoneLog struct {
	ID        string
	Name      string
	Payload   map[string]any
	Emitter   string
	Type      string
	Depth     int
	CreatedAt time.Time
}
