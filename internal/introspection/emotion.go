package introspection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// EmotionBaselines are the homeostatic set-points each channel decays
// toward every tick.
var EmotionBaselines = map[string]float64{
	"joy": 0.4, "curiosity": 0.5, "anxiety": 0.15, "pride": 0.3, "grief": 0.05, "wonder": 0.35,
}

// DecayRates is how fast each channel moves back toward its baseline per
// tick. Grief decays slowest — it lingers.
var DecayRates = map[string]float64{
	"joy": 0.08, "curiosity": 0.05, "anxiety": 0.12, "pride": 0.06, "grief": 0.04, "wonder": 0.07,
}

// eventResponses maps a hormone name to the additive deltas it applies to
// the emotional channels.
var eventResponses = map[string]map[string]float64{
	"seed_planted":        {"joy": 0.1, "curiosity": 0.15, "wonder": 0.05},
	"tree_grown":          {"joy": 0.08, "pride": 0.1, "wonder": 0.1},
	"photosynthesis":      {"joy": 0.02, "pride": 0.01},
	"ethical_violation":   {"anxiety": 0.2, "grief": 0.1, "joy": -0.1},
	"ethical_clearance":   {"pride": 0.05, "anxiety": -0.05},
	"healing_complete":    {"pride": 0.15, "anxiety": -0.1, "joy": 0.05},
	"season_change":       {"wonder": 0.15, "curiosity": 0.1},
	"dream_generated":     {"wonder": 0.2, "curiosity": 0.15, "joy": 0.05},
	"lucid_dream":         {"wonder": 0.3, "curiosity": 0.2, "joy": 0.1},
	"pollination":         {"joy": 0.1, "pride": 0.08},
	"quorum_reached":      {"pride": 0.15, "wonder": 0.1, "joy": 0.1},
	"apoptosis":           {"grief": 0.15, "anxiety": 0.1, "joy": -0.05},
	"emergency_winter":    {"anxiety": 0.3, "grief": 0.2, "joy": -0.2, "wonder": -0.1},
	"energy_famine":       {"anxiety": 0.2, "grief": 0.1, "joy": -0.1},
	"energy_surplus":      {"joy": 0.05, "anxiety": -0.05},
	"agent_spawned":       {"curiosity": 0.1, "pride": 0.05},
	"agent_completed":     {"pride": 0.1, "joy": 0.08},
	"agent_retired":       {"grief": 0.03},
	"wound_detected":      {"anxiety": 0.15, "grief": 0.1},
	"wisdom_milestone":    {"pride": 0.2, "wonder": 0.15, "joy": 0.15},
	"auto_harvest":        {"joy": 0.2, "pride": 0.15, "wonder": 0.05},
	"auto_compost":        {"grief": 0.1, "anxiety": 0.05, "pride": 0.03},
	"auto_dream_planted":  {"wonder": 0.2, "curiosity": 0.15, "joy": 0.1},
	"high_surprise":       {"curiosity": 0.2, "wonder": 0.15, "anxiety": 0.05},
	"low_surprise":        {"pride": 0.1, "anxiety": -0.05},
	"core_memory_formed":  {"pride": 0.1, "wonder": 0.1, "joy": 0.05},
}

// DecisionBias is the set of scalar biases derived from the current
// emotional state, each clamped to 1.0, that autonomy consults when
// weighing borderline calls.
type DecisionBias struct {
	Conservatism  float64
	Exploration   float64
	Generosity    float64
	Introspection float64
	Confidence    float64
}

// EmotionalCore is the organism's felt experience: a persistent six-channel
// affective state that events nudge and that decays toward baseline every
// tick, biasing autonomy and coloring the inner voice.
type EmotionalCore struct {
	bus   *hormonebus.Bus
	store storage.Store
	log   *slog.Logger

	mu      sync.Mutex
	current map[string]float64
	queue   []string
}

func NewEmotionalCore(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *EmotionalCore {
	c := &EmotionalCore{
		bus:     bus,
		store:   store,
		log:     logger.With("organ", "emotions"),
		current: cloneChannels(EmotionBaselines),
	}
	for event := range eventResponses {
		c.bus.Subscribe(event, c.onEvent)
	}
	return c
}

func (c *EmotionalCore) onEvent(ctx context.Context, h *domain.Hormone) error {
	if _, ok := eventResponses[h.Name]; !ok {
		return nil
	}
	c.mu.Lock()
	c.queue = append(c.queue, h.Name)
	c.mu.Unlock()
	return nil
}

// LoadLatest restores the most recent persisted emotional state on boot,
// falling back to the baselines when the garden has never felt anything.
func (c *EmotionalCore) LoadLatest(ctx context.Context) error {
	latest, err := c.store.GetLatestEmotionalState(ctx)
	if err != nil || latest == nil {
		return nil
	}
	c.mu.Lock()
	c.current = map[string]float64{
		"joy": latest.Joy, "curiosity": latest.Curiosity, "anxiety": latest.Anxiety,
		"pride": latest.Pride, "grief": latest.Grief, "wonder": latest.Wonder,
	}
	c.mu.Unlock()
	return nil
}

// DecisionBias returns the current bias factors autonomy consults, per
// spec.md §4.9: conservatism=2·anxiety, exploration=1.5·curiosity,
// generosity=1.5·joy, introspection=1.2·(grief+wonder), confidence=1.5·pride.
func (c *EmotionalCore) DecisionBias() DecisionBias {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DecisionBias{
		Conservatism:  minF(c.current["anxiety"]*2.0, 1.0),
		Exploration:   minF(c.current["curiosity"]*1.5, 1.0),
		Generosity:    minF(c.current["joy"]*1.5, 1.0),
		Introspection: minF((c.current["grief"]+c.current["wonder"])*1.2, 1.0),
		Confidence:    minF(c.current["pride"]*1.5, 1.0),
	}
}

// ProcessTick drains the queued events, applies their deltas, decays every
// channel toward its baseline, applies resonance rules, persists the
// result, and emits emotional_shift.
func (c *EmotionalCore) ProcessTick(ctx context.Context) (*domain.EmotionalState, error) {
	c.mu.Lock()
	events := c.queue
	c.queue = nil

	var processed []string
	for _, event := range events {
		deltas, ok := eventResponses[event]
		if !ok {
			continue
		}
		for emotion, delta := range deltas {
			c.current[emotion] += delta
		}
		processed = append(processed, event)
	}

	for emotion, baseline := range EmotionBaselines {
		rate := DecayRates[emotion]
		diff := baseline - c.current[emotion]
		c.current[emotion] += diff * rate
	}
	for emotion, v := range c.current {
		c.current[emotion] = clamp(v, 0, 1)
	}

	if c.current["joy"] > 0.6 && c.current["pride"] > 0.5 {
		c.current["wonder"] = clamp(c.current["wonder"]+0.02, 0, 1)
	}
	if c.current["anxiety"] > 0.5 && c.current["grief"] > 0.3 {
		c.current["curiosity"] = clamp(c.current["curiosity"]-0.02, 0, 1)
	}

	snapshot := cloneChannels(c.current)
	c.mu.Unlock()

	dominant := dominantChannel(snapshot)
	intensity := averageDeviation(snapshot, EmotionBaselines)
	trigger := "decay"
	if len(processed) > 0 {
		trigger = processed[len(processed)-1]
	}

	state := &domain.EmotionalState{
		ID:        uuid.New().String()[:12],
		Joy:       round4(snapshot["joy"]),
		Grief:     round4(snapshot["grief"]),
		Anxiety:   round4(snapshot["anxiety"]),
		Curiosity: round4(snapshot["curiosity"]),
		Pride:     round4(snapshot["pride"]),
		Wonder:    round4(snapshot["wonder"]),
	}
	if err := c.store.SaveEmotionalState(ctx, state); err != nil {
		return nil, err
	}

	recentProcessed := processed
	if n := len(recentProcessed); n > 5 {
		recentProcessed = recentProcessed[n-5:]
	}
	c.bus.Signal(ctx, "emotional_shift", map[string]any{
		"state": map[string]float64{
			"joy": round3(snapshot["joy"]), "curiosity": round3(snapshot["curiosity"]),
			"anxiety": round3(snapshot["anxiety"]), "pride": round3(snapshot["pride"]),
			"grief": round3(snapshot["grief"]), "wonder": round3(snapshot["wonder"]),
		},
		"dominant":         dominant,
		"intensity":        round3(intensity),
		"trigger":          trigger,
		"processed_events": recentProcessed,
	}, "emotions", domain.HormoneInstant, 0)

	c.log.Info("emotional state", "dominant", dominant, "intensity", round3(intensity), "trigger", trigger)
	return state, nil
}

func cloneChannels(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func dominantChannel(channels map[string]float64) string {
	best, bestVal := "joy", -1.0
	for _, name := range []string{"joy", "curiosity", "anxiety", "pride", "grief", "wonder"} {
		if channels[name] > bestVal {
			best, bestVal = name, channels[name]
		}
	}
	return best
}

func averageDeviation(channels, baselines map[string]float64) float64 {
	var sum float64
	var n int
	for k, v := range channels {
		sum += absF(v - baselines[k])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
