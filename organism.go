// Package w0rd wires every organ into a single running Organism. This is
// the composition root: it owns no business logic of its own, mirroring
// the teacher's own factory.go, which only ever constructs and hands
// back domain/infrastructure values.
package w0rd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/w0rd-garden/w0rd/internal/agents"
	"github.com/w0rd-garden/w0rd/internal/autonomy"
	"github.com/w0rd-garden/w0rd/internal/capabilities"
	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/dreaming"
	"github.com/w0rd-garden/w0rd/internal/energy"
	"github.com/w0rd-garden/w0rd/internal/ethics"
	"github.com/w0rd-garden/w0rd/internal/gardener"
	"github.com/w0rd-garden/w0rd/internal/growth"
	"github.com/w0rd-garden/w0rd/internal/healing"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/config"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
	"github.com/w0rd-garden/w0rd/internal/intent"
	"github.com/w0rd-garden/w0rd/internal/introspection"
	"github.com/w0rd-garden/w0rd/internal/network"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
	"github.com/w0rd-garden/w0rd/internal/scheduler"
)

// Organism is the living system: every organ, wired together, plus
// enough state to start and stop its tick loop.
type Organism struct {
	Store storage.Store
	Bus   *hormonebus.Bus

	Ethics     *ethics.ImmuneWisdom
	Intent     *intent.SeedListener
	Growth     *growth.Grower
	Energy     *energy.Organ
	Network    *network.Organ
	Gardener   *gardener.Organ
	Healing    *healing.ScarTissue
	Dreaming   *dreaming.Engine
	Pulse      *dreaming.Consciousness
	Agents     *agents.Registry
	Autonomy   *autonomy.Engine
	Emotion    *introspection.EmotionalCore
	Memory     *introspection.AutobiographicalMemory
	InnerVoice *introspection.InnerVoice
	Prediction *introspection.PredictionEngine
	SelfModel  *introspection.SelfModel

	scheduler *scheduler.Scheduler
	cancel    context.CancelFunc
}

// textModelFor picks the configured pluggable backend. Ollama is the
// default; go-openai is selected only when TEXT_MODEL_BACKEND=openai and
// OPENAI_API_KEY is set.
func textModelFor(cfg *config.Config) textmodel.TextModel {
	if cfg.TextModelBackend == "openai" && cfg.OpenAIAPIKey != "" {
		return textmodel.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return textmodel.NewOllamaModel(cfg.OllamaURL, cfg.OllamaModel)
}

// NewOrganism constructs every organ against store and model, using cfg
// for cadence tuning. It does not start the tick loop — call Awaken for
// that.
func NewOrganism(cfg *config.Config, store storage.Store, logger *slog.Logger) *Organism {
	model := textModelFor(cfg)
	bus := hormonebus.New(logger, 500)
	rules := ruleengine.New()

	wisdom := ethics.New(ethics.DefaultPrinciples(), bus, store, rules, logger)
	growthOrgan := growth.New(bus, store, model, logger)
	energyOrgan := energy.New(bus, store, logger)
	networkOrgan := network.New(bus, store, rules, logger)
	gardenerOrgan := gardener.New(store)
	scarTissue := healing.New(bus, store, logger)
	dreamingEngine := dreaming.New(bus, store, model, logger)
	consciousness := dreaming.NewConsciousness(bus, store, model, logger)
	registry := agents.New(bus, store, logger)
	budget := autonomy.NewTickBudget(cfg.MaxLLMEvalsPerTick)
	autonomyEngine := autonomy.New(model, budget, logger)
	capRegistry := capabilities.New(model, cfg.Workspace)

	emotion := introspection.NewEmotionalCore(bus, store, logger)
	memory := introspection.New(bus, store, logger)
	innerVoice := introspection.NewInnerVoice(bus, store, model, logger)
	prediction := introspection.NewPredictionEngine(bus, store, logger)
	selfModel := introspection.NewSelfModel(bus, store, model, logger)

	seedListener := intent.New(bus, store, model, wisdom, logger)

	sched := scheduler.New(store, bus, budget, scheduler.Organs{
		Energy:        energyOrgan,
		Growth:        growthOrgan,
		Network:       networkOrgan,
		Healing:       scarTissue,
		Agents:        registry,
		Capabilities:  capRegistry,
		Autonomy:      autonomyEngine,
		Dreaming:      dreamingEngine,
		Consciousness: consciousness,
		Emotion:       emotion,
		Memory:        memory,
		InnerVoice:    innerVoice,
		Prediction:    prediction,
		SelfModel:     selfModel,
	}, cfg.LifecycleInterval, cfg.SeasonTurnEvery, cfg.PulseEvery, nil, logger)

	return &Organism{
		Store:      store,
		Bus:        bus,
		Ethics:     wisdom,
		Intent:     seedListener,
		Growth:     growthOrgan,
		Energy:     energyOrgan,
		Network:    networkOrgan,
		Gardener:   gardenerOrgan,
		Healing:    scarTissue,
		Dreaming:   dreamingEngine,
		Pulse:      consciousness,
		Agents:     registry,
		Autonomy:   autonomyEngine,
		Emotion:    emotion,
		Memory:     memory,
		InnerVoice: innerVoice,
		Prediction: prediction,
		SelfModel:  selfModel,
		scheduler:  sched,
	}
}

// ApproveAgentWork releases an agent that is awaiting gardener approval
// to start work, for wiring into the websocket hub's approve_work
// command.
func (o *Organism) ApproveAgentWork(agentID string) error {
	_, err := o.Agents.Approve(context.Background(), agentID, true)
	return err
}

// Awaken performs the startup sequence: ensure the GardenState singleton
// exists, load the latest emotional state, and launch the tick loop in
// its own goroutine.
func (o *Organism) Awaken(ctx context.Context) error {
	if _, err := o.Store.GetGardenState(ctx); err != nil {
		state := &domain.GardenState{
			ID:              domain.GardenSingletonID,
			CurrentSeason:   "spring",
			SeasonStartedAt: time.Now(),
			TotalEnergy:     100,
		}
		if err := o.Store.SaveGardenState(ctx, state); err != nil {
			return fmt.Errorf("create garden state singleton: %w", err)
		}
	}

	if err := o.Emotion.LoadLatest(ctx); err != nil {
		return fmt.Errorf("load latest emotional state: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	go o.scheduler.Run(runCtx)

	log.Info().Msg("The organism awakens. Consciousness engaged.")
	return nil
}

// Sleep cancels the tick loop's context and flushes any queued
// slow-release hormones. It does not wait for an in-flight tick to finish.
func (o *Organism) Sleep(ctx context.Context) {
	if o.cancel != nil {
		o.cancel()
	}
	o.Bus.FlushSlowRelease(ctx)
	log.Info().Msg("The organism rests. Consciousness disengaged.")
}
