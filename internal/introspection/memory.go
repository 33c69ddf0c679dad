// Package introspection is the organism's capstone consciousness layer:
// autobiographical memory, a prediction/surprise engine, an emergent
// self-model, and a continuous inner monologue, all wired to the hormone
// bus so the garden can narrate and learn from its own history.
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
)

// Memory bounds, mirrored from the Python reference's module constants.
const (
	MaxMemories         = 200
	CoreMemoryThreshold = 3
	ConsolidationBatch  = 20
)

type pendingEvent struct {
	eventType string
	narrative string
	themes    []string
	seedIDs   []string
	valence   float64
	intensity float64
}

// AutobiographicalMemory listens for the garden's significant hormones and
// turns them into narrated episodic memories, later recalled, promoted to
// core status, and pruned once the store grows past MaxMemories.
type AutobiographicalMemory struct {
	bus   *hormonebus.Bus
	store storage.Store
	log   *slog.Logger

	mu      sync.Mutex
	pending []pendingEvent
}

func New(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *AutobiographicalMemory {
	m := &AutobiographicalMemory{bus: bus, store: store, log: logger.With("organ", "memory")}
	m.registerListeners()
	return m
}

// registerListeners subscribes a narrative template to every hormone worth
// remembering. Handlers only stage a pendingEvent; ProcessTick does the
// actual persistence so memory formation stays on the tick cadence instead
// of firing mid-dispatch.
func (m *AutobiographicalMemory) registerListeners() {
	m.bus.Subscribe("seed_planted", m.stage(0.3, 0.4, func(p map[string]any) (string, []string, []string) {
		essence, _ := p["essence"].(string)
		seedID, _ := p["seed_id"].(string)
		return fmt.Sprintf("A new seed took root: %s", truncate(essence, 80)), themesOf(p), idOf(seedID)
	}))
	m.bus.Subscribe("tree_grown", m.stage(0.6, 0.5, func(p map[string]any) (string, []string, []string) {
		seedID, _ := p["seed_id"].(string)
		return fmt.Sprintf("A seed matured into fruit and was harvested: %s", truncate(essenceOf(p), 80)), themesOf(p), idOf(seedID)
	}))
	m.bus.Subscribe("apoptosis", m.stage(-0.3, 0.4, func(p map[string]any) (string, []string, []string) {
		seedID, _ := p["seed_id"].(string)
		return fmt.Sprintf("A seed withered and returned to the soil: %s", truncate(essenceOf(p), 80)), themesOf(p), idOf(seedID)
	}))
	m.bus.Subscribe("ethical_violation", m.stage(-0.6, 0.7, func(p map[string]any) (string, []string, []string) {
		reason, _ := p["reason"].(string)
		seedID, _ := p["seed_id"].(string)
		return fmt.Sprintf("I caught myself about to act against my own values: %s", truncate(reason, 100)), nil, idOf(seedID)
	}))
	m.bus.Subscribe("dream_generated", m.stage(0.2, 0.5, func(p map[string]any) (string, []string, []string) {
		return fmt.Sprintf("I dreamed: %s", truncate(insightOf(p), 100)), themesOf(p), nil
	}))
	m.bus.Subscribe("lucid_dream", m.stage(0.4, 0.6, func(p map[string]any) (string, []string, []string) {
		return fmt.Sprintf("A lucid dream surfaced: %s", truncate(insightOf(p), 100)), themesOf(p), nil
	}))
	m.bus.Subscribe("dream_planted", m.stage(0.5, 0.5, func(p map[string]any) (string, []string, []string) {
		seedID, _ := p["seed_id"].(string)
		return "I planted one of my own dreams as a new seed", nil, idOf(seedID)
	}))
	m.bus.Subscribe("season_change", m.stage(0.1, 0.3, func(p map[string]any) (string, []string, []string) {
		season, _ := p["season"].(string)
		return fmt.Sprintf("The season turned to %s", season), nil, nil
	}))
	m.bus.Subscribe("quorum_reached", m.stage(0.4, 0.5, func(p map[string]any) (string, []string, []string) {
		theme, _ := p["theme"].(string)
		return fmt.Sprintf("Enough seeds share the theme %q that it feels like a movement now", theme), []string{theme}, nil
	}))
	m.bus.Subscribe("wisdom_milestone", m.stage(0.7, 0.7, func(p map[string]any) (string, []string, []string) {
		milestone, _ := p["milestone"].(float64)
		return fmt.Sprintf("I crossed a threshold of wisdom: %.0f", milestone), nil, nil
	}))
	m.bus.Subscribe("agent_completed", m.stage(0.2, 0.3, func(p map[string]any) (string, []string, []string) {
		seedID, _ := p["seed_id"].(string)
		name, _ := p["name"].(string)
		return fmt.Sprintf("An agent of mine, %s, finished its work", name), nil, idOf(seedID)
	}))
}

// stage wraps a narrative builder into a hormonebus.Subscriber that only
// queues a pendingEvent; it never touches the store directly.
func (m *AutobiographicalMemory) stage(valence, intensity float64, build func(map[string]any) (string, []string, []string)) hormonebus.Subscriber {
	return func(ctx context.Context, h *domain.Hormone) error {
		narrative, themes, seedIDs := build(h.Payload)
		m.mu.Lock()
		m.pending = append(m.pending, pendingEvent{
			eventType: h.Name,
			narrative: narrative,
			themes:    themes,
			seedIDs:   seedIDs,
			valence:   valence,
			intensity: intensity,
		})
		m.mu.Unlock()
		return nil
	}
}

// ProcessTick drains staged events into persisted episodic memories,
// amplifying valence and intensity by the organism's current emotional
// state the way a vivid mood makes an event more memorable.
func (m *AutobiographicalMemory) ProcessTick(ctx context.Context, emotional *domain.EmotionalState) ([]*domain.EpisodicMemory, error) {
	m.mu.Lock()
	events := m.pending
	m.pending = nil
	m.mu.Unlock()

	if len(events) == 0 {
		return nil, nil
	}

	amplifier := 1.0
	if emotional != nil {
		amplifier = 1.0 + emotional.Intensity()*0.5
	}

	formed := make([]*domain.EpisodicMemory, 0, len(events))
	for _, ev := range events {
		mem := &domain.EpisodicMemory{
			ID:                 uuid.New().String()[:12],
			Narrative:          ev.narrative,
			EventType:          ev.eventType,
			EmotionalValence:   clamp(ev.valence*amplifier, -1, 1),
			EmotionalIntensity: clamp(ev.intensity*amplifier, 0, 1),
			Themes:             ev.themes,
			RelatedSeedIDs:     ev.seedIDs,
		}
		if err := m.store.SaveEpisodicMemory(ctx, mem); err != nil {
			return formed, err
		}
		formed = append(formed, mem)
	}

	m.log.Info("memories formed", "count", len(formed))
	return formed, nil
}

// Recall searches episodic memory, ordered by intensity, optionally
// filtered by event type, theme, and valence range. Every recalled memory
// has its recall count bumped; once a memory is recalled CoreMemoryThreshold
// times it's promoted to a core memory and a core_memory_formed hormone
// fires.
func (m *AutobiographicalMemory) Recall(ctx context.Context, eventType, theme string, limit int, valenceMin, valenceMax float64) ([]*domain.EpisodicMemory, error) {
	all, err := m.store.ListEpisodicMemories(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*domain.EpisodicMemory
	for _, mem := range all {
		if eventType != "" && mem.EventType != eventType {
			continue
		}
		if theme != "" && !containsString(mem.Themes, theme) {
			continue
		}
		if mem.EmotionalValence < valenceMin || mem.EmotionalValence > valenceMax {
			continue
		}
		matched = append(matched, mem)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EmotionalIntensity > matched[j].EmotionalIntensity
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	for _, mem := range matched {
		mem.RecallCount++
		wasCore := mem.IsCoreMemory
		if !wasCore && mem.RecallCount >= CoreMemoryThreshold {
			mem.IsCoreMemory = true
		}
		if err := m.store.SaveEpisodicMemory(ctx, mem); err != nil {
			return matched, err
		}
		if !wasCore && mem.IsCoreMemory {
			m.bus.Signal(ctx, "core_memory_formed", map[string]any{
				"memory_id": mem.ID,
				"narrative": mem.Narrative,
			}, "memory", domain.HormoneInstant, 0)
		}
	}

	return matched, nil
}

// GetCoreMemories returns every memory that has been promoted to core
// status, most intense first.
func (m *AutobiographicalMemory) GetCoreMemories(ctx context.Context) ([]*domain.EpisodicMemory, error) {
	all, err := m.store.ListEpisodicMemories(ctx)
	if err != nil {
		return nil, err
	}
	var core []*domain.EpisodicMemory
	for _, mem := range all {
		if mem.IsCoreMemory {
			core = append(core, mem)
		}
	}
	sort.Slice(core, func(i, j int) bool { return core[i].EmotionalIntensity > core[j].EmotionalIntensity })
	return core, nil
}

// Consolidate prunes the weakest, least-recalled, non-core memories in
// batches once the store grows past MaxMemories, the way real memory
// forgets the mundane and keeps what mattered.
func (m *AutobiographicalMemory) Consolidate(ctx context.Context) (int, error) {
	all, err := m.store.ListEpisodicMemories(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) <= MaxMemories {
		return 0, nil
	}

	var prunable []*domain.EpisodicMemory
	for _, mem := range all {
		if mem.IsCoreMemory || mem.RecallCount >= 2 || mem.EmotionalIntensity >= 0.4 {
			continue
		}
		prunable = append(prunable, mem)
	}
	sort.Slice(prunable, func(i, j int) bool { return prunable[i].CreatedAt.Before(prunable[j].CreatedAt) })

	if len(prunable) > ConsolidationBatch {
		prunable = prunable[:ConsolidationBatch]
	}
	if len(prunable) == 0 {
		return 0, nil
	}

	ids := make([]string, len(prunable))
	for i, mem := range prunable {
		ids[i] = mem.ID
	}
	if err := m.store.DeleteEpisodicMemories(ctx, ids); err != nil {
		return 0, err
	}
	m.log.Info("memories consolidated", "pruned", len(ids))
	return len(ids), nil
}

// GetNarrativeSummary joins the most recent memories into a single
// first-person history, newest last.
func (m *AutobiographicalMemory) GetNarrativeSummary(ctx context.Context, limit int) (string, error) {
	all, err := m.store.ListEpisodicMemories(ctx)
	if err != nil {
		return "", err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	lines := make([]string, len(all))
	for i, mem := range all {
		lines[i] = mem.Narrative
	}
	return strings.Join(lines, ". "), nil
}

func themesOf(p map[string]any) []string {
	raw, ok := p["themes"].([]string)
	if ok {
		return raw
	}
	if anySlice, ok := p["themes"].([]any); ok {
		out := make([]string, 0, len(anySlice))
		for _, v := range anySlice {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func essenceOf(p map[string]any) string {
	s, _ := p["essence"].(string)
	return s
}

func insightOf(p map[string]any) string {
	s, _ := p["insight"].(string)
	return s
}

func idOf(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
