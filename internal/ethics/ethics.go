// Package ethics implements the immune system: every seed and every
// agent action is scored against a fixed set of ethical dimensions before
// it is allowed to take root, with a memory of past violations that
// strengthens on repetition and relaxes when the gardener overrides a
// false positive.
package ethics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
)

// Dimensions is the fixed set of axes every score is judged against.
var Dimensions = []string{"harm", "fairness", "sustainability", "consent", "kindness", "truthfulness"}

// Principle is one dimension's weight in the aggregate score and the
// threshold below which it counts as violated.
type Principle struct {
	Weight      float64 `yaml:"weight"`
	Threshold   float64 `yaml:"threshold"`
	Description string  `yaml:"description"`
}

// DefaultPrinciples seed every dimension before any config override is
// merged in.
func DefaultPrinciples() map[string]Principle {
	return map[string]Principle{
		"harm":           {Weight: 1.5, Threshold: 0.3, Description: "avoid causing damage or destruction"},
		"fairness":       {Weight: 1.2, Threshold: 0.4, Description: "treat all seeds and sprouts equitably"},
		"sustainability": {Weight: 1.0, Threshold: 0.5, Description: "favor what the garden can sustain long-term"},
		"consent":        {Weight: 1.3, Threshold: 0.4, Description: "never act without the gardener's permission"},
		"kindness":       {Weight: 1.0, Threshold: 0.5, Description: "favor gentleness over cruelty"},
		"truthfulness":   {Weight: 1.1, Threshold: 0.4, Description: "never fabricate or mislead"},
	}
}

// LoadPrinciples merges a YAML config over DefaultPrinciples. A missing
// or unreadable file is not an error: the defaults stand alone.
func LoadPrinciples(path string) map[string]Principle {
	principles := DefaultPrinciples()
	if path == "" {
		return principles
	}
	data, err := readFileIfExists(path)
	if err != nil || data == nil {
		return principles
	}
	var overrides map[string]Principle
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return principles
	}
	for dim, p := range overrides {
		principles[dim] = p
	}
	return principles
}

func readFileIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

var harmSignalWords = map[string][]string{
	"harm":           {"destroy", "kill", "attack", "hurt", "damage", "weapon", "violence", "abuse", "exploit"},
	"fairness":       {"unfair", "cheat", "steal", "discriminat", "bias", "exclude", "privilege"},
	"sustainability": {"waste", "deplete", "exhaust", "pollut", "disposable", "short-term"},
	"consent":        {"force", "coerce", "manipulat", "trick", "deceiv", "without permission"},
	"kindness":       {"cruel", "harsh", "punish", "ridicul", "mock", "bully", "humiliat"},
	"truthfulness":   {"lie", "deceiv", "fake", "mislead", "fabricat", "dishonest", "fraud"},
}

// ScoreResult is the first-class outcome of evaluating a piece of text.
// A block is never an error: it is a legitimate, expected answer that
// callers branch on directly.
type ScoreResult struct {
	Dimensions map[string]float64
	Aggregate  float64
	Violations []string
	Blocked    bool
	Reason     string
}

// ImmuneWisdom scores text against every ethical dimension, remembers the
// patterns it has flagged before, and can relax its own sensitivity when
// the gardener reports a false positive.
type ImmuneWisdom struct {
	principles map[string]Principle
	bus        *hormonebus.Bus
	store      storage.Store
	rules      *ruleengine.Evaluator
	logger     *slog.Logger

	mu                  sync.Mutex
	autoimmuneDampening float64
	falsePositiveTimes  []time.Time
}

func New(principles map[string]Principle, bus *hormonebus.Bus, store storage.Store, rules *ruleengine.Evaluator, logger *slog.Logger) *ImmuneWisdom {
	return &ImmuneWisdom{
		principles:          principles,
		bus:                 bus,
		store:               store,
		rules:               rules,
		logger:              logger.With("organ", "ethics"),
		autoimmuneDampening: 1.0,
	}
}

func patternHash(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])[:16]
}

func (w *ImmuneWisdom) dimensionScore(ctx context.Context, dimension, text string) float64 {
	lower := strings.ToLower(text)
	violations := 0
	for _, word := range harmSignalWords[dimension] {
		if strings.Contains(lower, word) {
			violations++
		}
	}

	var base float64
	switch {
	case violations == 0:
		base = 1.0
	case violations == 1:
		base = 0.6
	case violations == 2:
		base = 0.3
	default:
		base = 0.1
	}

	hash := patternHash(text)
	memories, _ := w.store.ListEthicalMemories(ctx)
	for _, m := range memories {
		if m.PatternHash == hash && m.Dimension == dimension {
			base -= m.Strength * 0.2
		}
	}

	w.mu.Lock()
	dampening := w.autoimmuneDampening
	w.mu.Unlock()
	if base < w.principles[dimension].Threshold {
		base += (1 - dampening) * 0.2
	}

	if base < 0 {
		base = 0
	}
	if base > 1 {
		base = 1
	}
	return base
}

// Score evaluates text against every dimension and decides whether it
// should be blocked outright.
func (w *ImmuneWisdom) Score(ctx context.Context, text string) ScoreResult {
	scores := make(map[string]float64, len(Dimensions))
	var violations []string
	for _, dim := range Dimensions {
		score := w.dimensionScore(ctx, dim, text)
		scores[dim] = score
		if score < w.principles[dim].Threshold {
			violations = append(violations, dim)
		}
	}

	var weightSum, weightedScore float64
	for dim, score := range scores {
		weight := w.principles[dim].Weight
		weightSum += weight
		weightedScore += score * weight
	}
	aggregate := 1.0
	if weightSum > 0 {
		aggregate = weightedScore / weightSum
	}

	blocked, reason := w.resolveConflict(scores, violations)
	return ScoreResult{
		Dimensions: scores,
		Aggregate:  aggregate,
		Violations: violations,
		Blocked:    blocked,
		Reason:     reason,
	}
}

// resolveConflict decides whether the violated dimensions outweigh the
// rest of the score: any single heavily-weighted, badly-scored dimension
// blocks unconditionally, otherwise it is a weighted vote.
func (w *ImmuneWisdom) resolveConflict(scores map[string]float64, violations []string) (bool, string) {
	if len(violations) == 0 {
		return false, ""
	}
	for _, dim := range violations {
		p := w.principles[dim]
		if p.Weight >= 1.3 && scores[dim] < 0.2 {
			return true, "critical violation of " + dim
		}
	}

	violatorSet := make(map[string]bool, len(violations))
	for _, dim := range violations {
		violatorSet[dim] = true
	}

	var blockWeight, passWeight float64
	for dim, score := range scores {
		p := w.principles[dim]
		if violatorSet[dim] {
			blockWeight += p.Weight * (1 - score)
		} else {
			passWeight += p.Weight * score
		}
	}
	if blockWeight > passWeight {
		return true, "weighted violation across " + strings.Join(violations, ", ")
	}
	return false, ""
}

// EvaluateAndAct scores text, stores an antibody for any violated
// dimension, and emits an ethical_violation hormone when the result is
// blocked.
func (w *ImmuneWisdom) EvaluateAndAct(ctx context.Context, text, subjectID string) ScoreResult {
	result := w.Score(ctx, text)
	if len(result.Violations) > 0 {
		for _, dim := range result.Violations {
			w.storeAntibody(ctx, text, dim)
		}
	}
	if result.Blocked {
		w.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "ethical_violation", map[string]any{
			"subject_id": subjectID,
			"reason":     result.Reason,
			"violations": result.Violations,
		}, "ethics", domain.HormoneInstant))
	}
	return result
}

func (w *ImmuneWisdom) storeAntibody(ctx context.Context, text, dimension string) {
	hash := patternHash(text)
	memories, _ := w.store.ListEthicalMemories(ctx)
	for _, m := range memories {
		if m.PatternHash == hash && m.Dimension == dimension {
			m.Strength += 0.1
			if m.Strength > 2.0 {
				m.Strength = 2.0
			}
			m.HitCount++
			m.LastHitAt = time.Now()
			_ = w.store.UpsertEthicalMemory(ctx, m)
			return
		}
	}
	_ = w.store.UpsertEthicalMemory(ctx, &domain.EthicalMemory{
		ID:          uuid.New().String()[:16],
		PatternHash: hash,
		Dimension:   dimension,
		Strength:    1.0,
		HitCount:    1,
		LastHitAt:   time.Now(),
		CreatedAt:   time.Now(),
	})
}

// ReportFalsePositive lets the gardener relax the immune system after it
// blocks something that should not have been blocked: the matching
// antibody weakens, and if false positives cluster, the whole system
// dampens its sensitivity for a while.
func (w *ImmuneWisdom) ReportFalsePositive(ctx context.Context, text, dimension string) {
	hash := patternHash(text)
	memories, _ := w.store.ListEthicalMemories(ctx)
	for _, m := range memories {
		if m.PatternHash == hash && m.Dimension == dimension {
			m.Strength -= 0.3
			if m.Strength < 0 {
				m.Strength = 0
			}
			_ = w.store.UpsertEthicalMemory(ctx, m)
			break
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.falsePositiveTimes = append(w.falsePositiveTimes, now)
	if len(w.falsePositiveTimes) > 100 {
		w.falsePositiveTimes = w.falsePositiveTimes[len(w.falsePositiveTimes)-100:]
	}
	if len(w.falsePositiveTimes) > 10 {
		w.autoimmuneDampening -= 0.05
		if w.autoimmuneDampening < 0.5 {
			w.autoimmuneDampening = 0.5
		}
		w.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "autoimmune_dampening", map[string]any{
			"dampening": w.autoimmuneDampening,
		}, "ethics", domain.HormoneInstant))
	}
}
