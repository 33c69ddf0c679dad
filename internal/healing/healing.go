// Package healing implements scar tissue: the organism's wound-response
// and resilience layer. It listens for damage hormones, triages their
// severity, applies a healing response, and grows the garden's
// antifragility through scar memory.
package healing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// Wound severities, triaged from the hormone that raised them.
const (
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// antifragilityGains is how much resilience a healed wound of each
// severity grants — worse wounds, once healed, teach more.
var antifragilityGains = map[string]float64{
	SeverityMinor:    0.1,
	SeverityModerate: 0.3,
	SeveritySevere:   0.5,
}

// ScarTissue is the wound-healing organ. It subscribes directly to the
// hormones that signal damage and heals each wound as it arrives.
type ScarTissue struct {
	bus   *hormonebus.Bus
	store storage.Store
	log   *slog.Logger

	mu                     sync.Mutex
	pendingEmergencyWinter bool
}

func New(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *ScarTissue {
	s := &ScarTissue{bus: bus, store: store, log: logger.With("organ", "healing")}
	s.registerListeners()
	return s
}

func (s *ScarTissue) registerListeners() {
	s.bus.Subscribe("ethical_violation", s.onWound)
	s.bus.Subscribe("energy_famine", s.onWound)
	s.bus.Subscribe("apoptosis", s.onWound)
}

func (s *ScarTissue) onWound(ctx context.Context, h *domain.Hormone) error {
	_, err := s.TriageAndHeal(ctx, h.Name, h.Payload)
	return err
}

// TriageAndHeal classifies a wound's severity, applies the matching
// healing response, persists the scar, and grows the garden's
// antifragility score.
func (s *ScarTissue) TriageAndHeal(ctx context.Context, woundType string, payload map[string]any) (*domain.WoundRecord, error) {
	severity := classifySeverity(woundType, payload)
	seedID, sproutID := affectedIDs(payload)

	action, lesson := s.applyHealing(ctx, severity, woundType, sproutID)
	gain := antifragilityGains[severity]
	if gain == 0 {
		gain = 0.05
	}

	now := time.Now()
	wound := &domain.WoundRecord{
		ID:                  uuid.New().String()[:16],
		SeedID:              seedID,
		Severity:            severityScore(severity),
		Cause:               woundType,
		HealingAction:       action,
		ScarLesson:          lesson,
		AntifragilityGained: gain,
		HealedAt:            &now,
		CreatedAt:           now,
	}
	if wound.SeedID == "" {
		wound.SeedID = sproutID
	}
	if err := s.store.SaveWoundRecord(ctx, wound); err != nil {
		return nil, err
	}

	garden, err := s.store.GetGardenState(ctx)
	if err == nil && garden != nil {
		garden.AntifragilityScore += gain
		_ = s.store.SaveGardenState(ctx, garden)
	}

	s.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "healing_complete", map[string]any{
		"wound_id":             wound.ID,
		"severity":             severity,
		"antifragility_gained": gain,
	}, "healing", domain.HormoneInstant))

	s.log.Info("healed wound", "type", woundType, "severity", severity, "antifragility_gain", gain)
	return wound, nil
}

// ConsumeEmergencyWinter reports and clears whether a severe wound has
// called for emergency dormancy since the last time it was checked. The
// season-turn phase consults this once per cadence to force the garden
// into winter ahead of its ordinary cycle.
func (s *ScarTissue) ConsumeEmergencyWinter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pendingEmergencyWinter
	s.pendingEmergencyWinter = false
	return pending
}

func classifySeverity(woundType string, payload map[string]any) string {
	switch woundType {
	case "apoptosis":
		return SeverityMinor
	case "ethical_violation":
		violations, _ := payload["violations"].([]string)
		switch {
		case len(violations) >= 3:
			return SeveritySevere
		case len(violations) >= 2:
			return SeverityModerate
		default:
			return SeverityMinor
		}
	case "energy_famine":
		depleted := intFromPayload(payload["depleted_count"])
		switch {
		case depleted >= 10:
			return SeveritySevere
		case depleted >= 5:
			return SeverityModerate
		default:
			return SeverityMinor
		}
	default:
		return SeverityMinor
	}
}

func intFromPayload(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// severityScore maps the triage label to the scalar the rest of the
// organism (self-model stats, pulse reports) reads off WoundRecord.
func severityScore(severity string) float64 {
	switch severity {
	case SeverityModerate:
		return 0.5
	case SeveritySevere:
		return 0.8
	default:
		return 0.2
	}
}

func affectedIDs(payload map[string]any) (seedID, sproutID string) {
	if v, ok := payload["subject_id"].(string); ok {
		seedID = v
	}
	if v, ok := payload["seed_id"].(string); ok {
		seedID = v
	}
	if v, ok := payload["sprout_id"].(string); ok {
		sproutID = v
	}
	return seedID, sproutID
}

func (s *ScarTissue) applyHealing(ctx context.Context, severity, woundType, sproutID string) (action, lesson string) {
	switch severity {
	case SeverityMinor:
		action = "Redistributed energy from healthy neighbors; logged lesson"
		lesson = fmt.Sprintf("Minor %s: resilience through local redistribution", woundType)

	case SeverityModerate:
		action = "Pruned damaged branch; strengthened ethical antibodies; redistributed freed energy"
		lesson = fmt.Sprintf("Moderate %s: pruning creates space for healthier growth", woundType)
		if sproutID != "" {
			if sprout, err := s.store.GetSprout(ctx, sproutID); err == nil {
				sprout.Status = domain.SproutStatusWilting
				_ = s.store.SaveSprout(ctx, sprout)
			}
		}

	case SeveritySevere:
		action = "Triggered emergency winter; forced dormancy; consolidating for spring rebuild"
		lesson = fmt.Sprintf("Severe %s: emergency dormancy protects the whole organism", woundType)
		s.mu.Lock()
		s.pendingEmergencyWinter = true
		s.mu.Unlock()
		s.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "emergency_winter", map[string]any{
			"reason":   woundType,
			"severity": severity,
		}, "healing", domain.HormoneInstant))

	default:
		action = "Observed and logged"
		lesson = "Unknown wound type — observation recorded"
	}
	return action, lesson
}
