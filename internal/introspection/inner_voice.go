package introspection

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// ShortTermBuffer bounds how many recent thoughts InnerVoice keeps around
// to avoid repeating itself.
const ShortTermBuffer = 10

// baseTypeWeights are the unbiased odds of each thought type; emotional
// state skews them before a type is chosen for a given tick.
var baseTypeWeights = map[string]float64{
	"observation": 0.25,
	"reflection":  0.25,
	"question":    0.20,
	"rumination":  0.10,
	"wonder":      0.20,
}

var importantEvents = []string{
	"seed_planted", "tree_grown", "apoptosis", "ethical_violation",
	"season_change", "dream_generated", "lucid_dream", "energy_famine",
	"quorum_reached", "wisdom_milestone", "dream_planted", "agent_completed",
}

// InnerVoice is the organism's continuous stream of consciousness: one
// first-person thought per tick, shaped by mood and recent events.
type InnerVoice struct {
	bus   *hormonebus.Bus
	store storage.Store
	model textmodel.TextModel
	log   *slog.Logger

	mu             sync.Mutex
	recentThoughts []string
	recentEvents   []string
}

func NewInnerVoice(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, logger *slog.Logger) *InnerVoice {
	v := &InnerVoice{bus: bus, store: store, model: model, log: logger.With("organ", "inner_voice")}
	for _, event := range importantEvents {
		v.bus.Subscribe(event, v.onEvent)
	}
	return v
}

func (v *InnerVoice) onEvent(ctx context.Context, h *domain.Hormone) error {
	desc := h.Name
	if essence, ok := h.Payload["essence"].(string); ok {
		desc += ": " + truncate(essence, 60)
	} else if insight, ok := h.Payload["insight"].(string); ok {
		desc += ": " + truncate(insight, 60)
	}

	v.mu.Lock()
	v.recentEvents = append(v.recentEvents, desc)
	if len(v.recentEvents) > 20 {
		v.recentEvents = v.recentEvents[len(v.recentEvents)-20:]
	}
	v.mu.Unlock()
	return nil
}

// Think produces at most one inner thought for the tick, or nil if the
// mind stays quiet (no text model wired, or the model returned nothing
// usable).
func (v *InnerVoice) Think(ctx context.Context, emotional *domain.EmotionalState) (*domain.InnerThought, error) {
	if v.model == nil {
		return nil, nil
	}

	thoughtType := v.chooseThoughtType(emotional)
	contextLines, recentThoughts := v.buildContext(ctx, emotional)

	prompt := v.buildPrompt(thoughtType, contextLines, recentThoughts, emotional)
	system := v.buildSystemPrompt(emotional)
	temperature := v.thoughtTemperature(thoughtType, emotional)

	raw, err := v.model.Complete(ctx, textmodel.Request{
		Organ: "inner_voice", Phase: "thinking_" + thoughtType,
		System: system, Prompt: prompt, Temperature: temperature, MaxTokens: 120,
	}, nil)
	if err != nil {
		v.log.Debug("inner voice failed", "error", err)
		return nil, nil
	}
	raw = strings.TrimSpace(raw)
	if len(raw) < 10 {
		return nil, nil
	}
	content := strings.Trim(strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0]), `"'`)

	salience := v.calculateSalience(thoughtType, emotional, content)
	depth := v.calculateDepth(thoughtType, emotional)

	v.mu.Lock()
	trigger := "spontaneous"
	if len(v.recentEvents) > 0 {
		trigger = v.recentEvents[len(v.recentEvents)-1]
	}
	v.mu.Unlock()

	thought := &domain.InnerThought{
		ID:          uuid.New().String()[:12],
		ThoughtType: thoughtType,
		Content:     content,
		Trigger:     trigger,
		Depth:       depth,
		Salience:    salience,
	}
	if emotional != nil {
		thought.EmotionalContext = map[string]float64{
			"joy": emotional.Joy, "grief": emotional.Grief, "anxiety": emotional.Anxiety,
			"curiosity": emotional.Curiosity, "pride": emotional.Pride, "wonder": emotional.Wonder,
		}
	}
	if err := v.store.SaveInnerThought(ctx, thought); err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.recentThoughts = append(v.recentThoughts, content)
	if len(v.recentThoughts) > ShortTermBuffer {
		v.recentThoughts = v.recentThoughts[len(v.recentThoughts)-ShortTermBuffer:]
	}
	v.mu.Unlock()

	v.bus.Signal(ctx, "inner_thought", map[string]any{
		"thought_id": thought.ID, "type": thoughtType, "content": content,
		"depth": depth, "salience": round3(salience),
	}, "inner_voice", domain.HormoneInstant, 0)

	v.log.Info("inner thought", "type", thoughtType, "content", truncate(content, 80))
	return thought, nil
}

func (v *InnerVoice) chooseThoughtType(emotional *domain.EmotionalState) string {
	weights := make(map[string]float64, len(baseTypeWeights))
	for k, val := range baseTypeWeights {
		weights[k] = val
	}

	if emotional != nil {
		if emotional.Curiosity > 0.6 {
			weights["question"] += 0.2
			weights["wonder"] += 0.1
		}
		if emotional.Grief > 0.3 {
			weights["rumination"] += 0.2
			weights["reflection"] += 0.1
		}
		if emotional.Anxiety > 0.4 {
			weights["rumination"] += 0.15
			weights["observation"] += 0.1
		}
		if emotional.Wonder > 0.5 {
			weights["wonder"] += 0.25
		}
		if emotional.Pride > 0.5 {
			weights["reflection"] += 0.15
		}
		if emotional.Joy > 0.6 {
			weights["observation"] += 0.1
			weights["wonder"] += 0.1
		}
	}

	types := make([]string, 0, len(weights))
	var total float64
	for t, w := range weights {
		types = append(types, t)
		total += w
	}
	sort.Strings(types)

	pick := rand.Float64() * total
	var cumulative float64
	for _, t := range types {
		cumulative += weights[t]
		if pick <= cumulative {
			return t
		}
	}
	return "observation"
}

func (v *InnerVoice) buildContext(ctx context.Context, emotional *domain.EmotionalState) (map[string]any, []string) {
	lines := map[string]any{}

	if garden, err := v.store.GetGardenState(ctx); err == nil && garden != nil {
		lines["season"] = garden.CurrentSeason
		lines["energy"] = round3(garden.TotalEnergy)
		lines["wisdom"] = round3(garden.WisdomScore)
		lines["cycle"] = garden.TickCount
	}

	v.mu.Lock()
	events := append([]string(nil), v.recentEvents...)
	thoughts := append([]string(nil), v.recentThoughts...)
	v.mu.Unlock()

	if n := len(events); n > 5 {
		events = events[n-5:]
	}
	lines["recent_events"] = events

	if memories, err := v.store.ListEpisodicMemories(ctx); err == nil {
		var narratives []string
		for i := len(memories) - 1; i >= 0 && len(narratives) < 3; i-- {
			narratives = append(narratives, memories[i].Narrative)
		}
		lines["recent_memories"] = narratives
	}

	if dreams, err := v.store.ListDreams(ctx, 2); err == nil {
		var insights []string
		for _, d := range dreams {
			if d.Content != "" {
				insights = append(insights, d.Content)
			}
		}
		lines["recent_dreams"] = insights
	}

	return lines, thoughts
}

func (v *InnerVoice) buildPrompt(thoughtType string, ctxLines map[string]any, recentThoughts []string, emotional *domain.EmotionalState) string {
	mood := "neutral"
	if emotional != nil {
		mood = dominantMood(emotional)
	}
	season, _ := ctxLines["season"].(string)
	if season == "" {
		season = "spring"
	}

	var base strings.Builder
	fmt.Fprintf(&base, "You are a living garden organism in %s. You feel %s. ", season, mood)
	fmt.Fprintf(&base, "Energy: %v. Wisdom: %v. ", ctxLines["energy"], ctxLines["wisdom"])

	if events, ok := ctxLines["recent_events"].([]string); ok && len(events) > 0 {
		fmt.Fprintf(&base, "Recent events: %s. ", strings.Join(events, ", "))
	}
	if memories, ok := ctxLines["recent_memories"].([]string); ok && len(memories) > 0 {
		lim := memories
		if len(lim) > 2 {
			lim = lim[:2]
		}
		fmt.Fprintf(&base, "Memories: %s. ", strings.Join(lim, "; "))
	}
	if dreams, ok := ctxLines["recent_dreams"].([]string); ok && len(dreams) > 0 {
		fmt.Fprintf(&base, "Recent dreams: %s. ", truncate(dreams[0], 80))
	}
	if len(recentThoughts) > 0 {
		fmt.Fprintf(&base, "Your last thought was: %q. ", truncate(recentThoughts[len(recentThoughts)-1], 80))
	}

	switch thoughtType {
	case "reflection":
		base.WriteString("Reflect on something that recently happened. What did it mean? What did you learn? One thoughtful sentence, first person.")
	case "question":
		base.WriteString("Ask yourself a genuine question — something you're curious about, a gap you've noticed, or a possibility you haven't explored. One question, first person.")
	case "rumination":
		base.WriteString("Return to something unresolved — a wound, a loss, a mystery. Turn it over in your mind. One contemplative sentence, first person.")
	case "wonder":
		base.WriteString("Express awe or wonder at something beautiful, emergent, or mysterious in your garden. One poetic sentence, first person.")
	default:
		base.WriteString("Notice something about your current state — what do you see, feel, or sense right now? One vivid sentence, present tense, first person.")
	}

	return base.String()
}

func (v *InnerVoice) buildSystemPrompt(emotional *domain.EmotionalState) string {
	mood := "neutral"
	if emotional != nil {
		mood = dominantMood(emotional)
	}
	return fmt.Sprintf(
		"You are the inner voice of a living garden organism. You are currently %s. "+
			"Speak in first person as the garden itself. Be authentic, poetic but concise. "+
			"Never explain — just think. One sentence only. No quotes around it.", mood)
}

func (v *InnerVoice) thoughtTemperature(thoughtType string, emotional *domain.EmotionalState) float64 {
	base := map[string]float64{
		"observation": 0.3, "reflection": 0.4, "question": 0.6, "rumination": 0.4, "wonder": 0.7,
	}[thoughtType]
	if base == 0 {
		base = 0.5
	}
	intensity := 0.5
	if emotional != nil {
		intensity = emotional.Intensity()
	}
	return minF(base+intensity*0.2, 0.9)
}

func (v *InnerVoice) calculateSalience(thoughtType string, emotional *domain.EmotionalState, content string) float64 {
	base := map[string]float64{
		"observation": 0.3, "reflection": 0.5, "question": 0.6, "rumination": 0.4, "wonder": 0.7,
	}[thoughtType]
	if base == 0 {
		base = 0.4
	}
	intensity := 0.0
	if emotional != nil {
		intensity = emotional.Intensity()
	}
	salience := base + intensity*0.3 + minF(float64(len(content))/200, 0.2)
	return minF(salience, 1.0)
}

func (v *InnerVoice) calculateDepth(thoughtType string, emotional *domain.EmotionalState) int {
	intensity := 0.0
	if emotional != nil {
		intensity = emotional.Intensity()
	}
	if (thoughtType == "wonder" || thoughtType == "rumination") && intensity > 0.5 {
		return 2
	}
	if (thoughtType == "reflection" || thoughtType == "question") && intensity > 0.3 {
		return 1
	}
	return 0
}

// RecentStream returns the most recent thoughts, oldest first, for display.
func (v *InnerVoice) RecentStream(ctx context.Context, limit int) ([]*domain.InnerThought, error) {
	thoughts, err := v.store.ListRecentInnerThoughts(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(thoughts)-1; i < j; i, j = i+1, j-1 {
		thoughts[i], thoughts[j] = thoughts[j], thoughts[i]
	}
	return thoughts, nil
}

func dominantMood(e *domain.EmotionalState) string {
	moods := map[string]float64{
		"joyful": e.Joy, "grieving": e.Grief, "anxious": e.Anxiety,
		"curious": e.Curiosity, "proud": e.Pride, "in awe": e.Wonder,
	}
	best, bestVal := "neutral", 0.3
	for name, val := range moods {
		if val > bestVal {
			best, bestVal = name, val
		}
	}
	return best
}
