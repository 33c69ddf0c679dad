package introspection

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// MaxActivePredictions bounds how many unresolved predictions the engine
// carries at once, so a quiet garden doesn't accumulate guesses forever.
const MaxActivePredictions = 20

// ResolvedPrediction is one prediction's outcome, handed back from
// ResolvePredictions for callers that want the detail rather than just the
// aggregate surprise signal.
type ResolvedPrediction struct {
	PredictionID string
	Type         string
	Predicted    string
	Actual       string
	Surprise     float64
	Correct      bool
}

// PredictionEngine is the organism's expectation machine: it predicts what
// will happen next tick, then compares reality to the guess. The gap is
// surprise, the signal that drives curiosity and caution.
type PredictionEngine struct {
	bus   *hormonebus.Bus
	store storage.Store
	log   *slog.Logger

	predictionCount   int64
	correctCount      int64
	cumulativeSurpriseMilli int64 // surprise accumulated *1000, for atomic add
}

func NewPredictionEngine(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *PredictionEngine {
	return &PredictionEngine{bus: bus, store: store, log: logger.With("organ", "prediction")}
}

func (e *PredictionEngine) Accuracy() float64 {
	total := atomic.LoadInt64(&e.predictionCount)
	if total == 0 {
		return 0.5
	}
	return float64(atomic.LoadInt64(&e.correctCount)) / float64(total)
}

func (e *PredictionEngine) AverageSurprise() float64 {
	total := atomic.LoadInt64(&e.predictionCount)
	if total == 0 {
		return 0.5
	}
	return float64(atomic.LoadInt64(&e.cumulativeSurpriseMilli)) / 1000.0 / float64(total)
}

// MakePredictions surveys the garden and stakes out guesses about seed
// outcomes and the overall energy trend. Called once per lifecycle tick.
func (e *PredictionEngine) MakePredictions(ctx context.Context) ([]*domain.Prediction, error) {
	active, err := e.store.ListUnresolvedPredictions(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) >= MaxActivePredictions {
		return nil, nil
	}

	var predictions []*domain.Prediction

	seedPreds, err := e.predictSeedOutcomes(ctx, active)
	if err != nil {
		return nil, err
	}
	predictions = append(predictions, seedPreds...)

	energyPred, err := e.predictEnergyTrend(ctx, active)
	if err != nil {
		return nil, err
	}
	if energyPred != nil {
		predictions = append(predictions, energyPred)
	}

	for _, p := range predictions {
		if err := e.store.SavePrediction(ctx, p); err != nil {
			return predictions, err
		}
	}
	if len(predictions) > 0 {
		e.log.Info("predictions made", "count", len(predictions))
	}
	return predictions, nil
}

// ResolvePredictions checks every unresolved prediction against reality,
// resolving the ones old enough to judge, and emits a high_surprise or
// low_surprise hormone when the average surprise this pass is extreme.
func (e *PredictionEngine) ResolvePredictions(ctx context.Context) ([]ResolvedPrediction, error) {
	unresolved, err := e.store.ListUnresolvedPredictions(ctx)
	if err != nil {
		return nil, err
	}

	var resolved []ResolvedPrediction
	var totalSurprise float64

	for _, pred := range unresolved {
		outcome, ok, err := e.checkOutcome(ctx, pred)
		if err != nil {
			return resolved, err
		}
		if !ok {
			continue
		}

		pred.ActualOutcome = outcome.actual
		pred.SurpriseScore = outcome.surprise
		pred.Resolved = true
		now := time.Now()
		pred.ResolvedAt = &now
		if err := e.store.SavePrediction(ctx, pred); err != nil {
			return resolved, err
		}

		atomic.AddInt64(&e.predictionCount, 1)
		atomic.AddInt64(&e.cumulativeSurpriseMilli, int64(outcome.surprise*1000))
		if outcome.correct {
			atomic.AddInt64(&e.correctCount, 1)
		}
		totalSurprise += outcome.surprise

		resolved = append(resolved, ResolvedPrediction{
			PredictionID: pred.ID,
			Type:         pred.PredictionType,
			Predicted:    pred.PredictedOutcome,
			Actual:       outcome.actual,
			Surprise:     outcome.surprise,
			Correct:      outcome.correct,
		})
	}

	if len(resolved) > 0 && totalSurprise > 0 {
		avg := totalSurprise / float64(len(resolved))
		switch {
		case avg > 0.5:
			e.bus.Signal(ctx, "high_surprise", map[string]any{
				"average_surprise": round3(avg), "resolved_count": len(resolved), "accuracy": round3(e.Accuracy()),
			}, "prediction", domain.HormoneInstant, 0)
		case avg < 0.2:
			e.bus.Signal(ctx, "low_surprise", map[string]any{
				"average_surprise": round3(avg), "accuracy": round3(e.Accuracy()),
			}, "prediction", domain.HormoneInstant, 0)
		}
	}

	return resolved, nil
}

type outcomeResult struct {
	actual   string
	surprise float64
	correct  bool
}

func (e *PredictionEngine) predictSeedOutcomes(ctx context.Context, active []*domain.Prediction) ([]*domain.Prediction, error) {
	haveActive := make(map[string]bool)
	for _, p := range active {
		if p.PredictionType == "seed_outcome" {
			haveActive[p.SubjectID] = true
		}
	}

	planted, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusPlanted)
	if err != nil {
		return nil, err
	}
	growing, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusGrowing)
	if err != nil {
		return nil, err
	}
	seeds := append(planted, growing...)

	var predictions []*domain.Prediction
	for _, seed := range seeds {
		if len(predictions) >= 3 {
			break
		}
		if haveActive[seed.ID] {
			continue
		}

		age := time.Since(seed.CreatedAt).Seconds()
		var predicted string
		var confidence float64
		switch {
		case seed.Energy > 15 && age > 120:
			predicted = "harvest"
			confidence = minF(0.5+seed.Energy/50, 0.9)
		case seed.Energy < 2 && age > 200:
			predicted = "compost"
			confidence = minF(0.4+(300-age)/500, 0.8)
		case seed.Status == domain.SeedStatusPlanted && age < 60:
			predicted = "growing"
			confidence = 0.7
		default:
			predicted = "continue"
			confidence = 0.5
		}

		predictions = append(predictions, &domain.Prediction{
			ID:               uuid.New().String()[:12],
			PredictionType:   "seed_outcome",
			SubjectID:        seed.ID,
			PredictedOutcome: predicted,
			Confidence:       round3(confidence),
		})
	}
	return predictions, nil
}

func (e *PredictionEngine) predictEnergyTrend(ctx context.Context, active []*domain.Prediction) (*domain.Prediction, error) {
	for _, p := range active {
		if p.PredictionType == "energy_trend" {
			return nil, nil
		}
	}

	garden, err := e.store.GetGardenState(ctx)
	if err != nil {
		return nil, nil
	}

	planted, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusPlanted)
	if err != nil {
		return nil, err
	}
	growing, err := e.store.ListSeedsByStatus(ctx, domain.SeedStatusGrowing)
	if err != nil {
		return nil, err
	}
	living := len(planted) + len(growing)

	var predicted string
	var confidence float64
	switch {
	case (garden.CurrentSeason == "spring" || garden.CurrentSeason == "summer") && living > 2:
		predicted, confidence = "increase", 0.6
	case garden.CurrentSeason == "winter" || living == 0:
		predicted, confidence = "decrease", 0.7
	default:
		predicted, confidence = "stable", 0.4
	}

	return &domain.Prediction{
		ID:               uuid.New().String()[:12],
		PredictionType:   "energy_trend",
		SubjectID:        domain.GardenSingletonID,
		PredictedOutcome: predicted + "|" + strconv.FormatFloat(round3(garden.TotalEnergy), 'f', 1, 64),
		Confidence:       round3(confidence),
	}, nil
}

func (e *PredictionEngine) checkOutcome(ctx context.Context, pred *domain.Prediction) (outcomeResult, bool, error) {
	switch pred.PredictionType {
	case "seed_outcome":
		return e.checkSeedOutcome(ctx, pred)
	case "energy_trend":
		return e.checkEnergyTrend(ctx, pred)
	}
	return outcomeResult{}, false, nil
}

func (e *PredictionEngine) checkSeedOutcome(ctx context.Context, pred *domain.Prediction) (outcomeResult, bool, error) {
	if time.Since(pred.CreatedAt) < 60*time.Second {
		return outcomeResult{}, false, nil
	}

	seed, err := e.store.GetSeed(ctx, pred.SubjectID)
	if err != nil || seed == nil {
		return outcomeResult{actual: "disappeared", surprise: 0.8, correct: false}, true, nil
	}

	if seed.Status == pred.PredictedOutcome {
		return outcomeResult{actual: seed.Status, surprise: round3(maxF(0, 0.2-pred.Confidence*0.2)), correct: true}, true, nil
	}
	return outcomeResult{actual: seed.Status, surprise: round3(minF(pred.Confidence*0.8+0.2, 1.0)), correct: false}, true, nil
}

func (e *PredictionEngine) checkEnergyTrend(ctx context.Context, pred *domain.Prediction) (outcomeResult, bool, error) {
	if time.Since(pred.CreatedAt) < 60*time.Second {
		return outcomeResult{}, false, nil
	}

	garden, err := e.store.GetGardenState(ctx)
	if err != nil {
		return outcomeResult{}, false, nil
	}

	parts := strings.SplitN(pred.PredictedOutcome, "|", 2)
	predictedDirection := parts[0]
	oldEnergy := 100.0
	if len(parts) > 1 {
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			oldEnergy = v
		}
	}

	delta := garden.TotalEnergy - oldEnergy
	var actual string
	switch {
	case delta > 2:
		actual = "increase"
	case delta < -2:
		actual = "decrease"
	default:
		actual = "stable"
	}

	correct := actual == predictedDirection
	var surprise float64
	if correct {
		surprise = maxF(0, 0.15-pred.Confidence*0.15)
	} else {
		surprise = minF(pred.Confidence*0.7+0.3, 1.0)
	}

	return outcomeResult{
		actual:   actual + "|" + strconv.FormatFloat(round3(garden.TotalEnergy), 'f', 1, 64),
		surprise: round3(surprise),
		correct:  correct,
	}, true, nil
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
