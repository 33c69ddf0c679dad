// Package scheduler runs the organism's tick loop: one dedicated
// goroutine sequencing every organ through the nine-phase order the
// tick loop has followed since the organism's first heartbeat.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/w0rd-garden/w0rd/internal/agents"
	"github.com/w0rd-garden/w0rd/internal/autonomy"
	"github.com/w0rd-garden/w0rd/internal/capabilities"
	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/dreaming"
	"github.com/w0rd-garden/w0rd/internal/energy"
	"github.com/w0rd-garden/w0rd/internal/growth"
	"github.com/w0rd-garden/w0rd/internal/healing"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/tracing"
	"github.com/w0rd-garden/w0rd/internal/introspection"
	"github.com/w0rd-garden/w0rd/internal/network"
)

// AutoWaterAttentionSeconds is the attention budget every living seed
// receives once per tick, standing in for an explicit gardener visit.
const AutoWaterAttentionSeconds = 5.0

// Broadcaster receives the organism's events for onward relay (the
// websocket hub, in the full server). Nil is a valid broadcaster: events
// are simply dropped.
type Broadcaster interface {
	Broadcast(event string, data map[string]any)
}

// Scheduler owns the tick loop and every organ it sequences.
type Scheduler struct {
	store  storage.Store
	bus    *hormonebus.Bus
	budget *autonomy.TickBudget
	log    *slog.Logger

	interval        time.Duration
	seasonTurnEvery int
	pulseEvery      int

	energy        *energy.Organ
	growth        *growth.Grower
	network       *network.Organ
	healing       *healing.ScarTissue
	agents        *agents.Registry
	caps          *capabilities.Registry
	autonomy      *autonomy.Engine
	dreaming      *dreaming.Engine
	consciousness *dreaming.Consciousness
	emotion       *introspection.EmotionalCore
	memory        *introspection.AutobiographicalMemory
	innerVoice    *introspection.InnerVoice
	prediction    *introspection.PredictionEngine
	selfModel     *introspection.SelfModel

	broadcaster Broadcaster
	tick        int64
}

// Organs bundles every subsystem the scheduler sequences, built by the
// caller (NewOrganism in the root package) and handed in whole so Scheduler itself stays free
// of wiring decisions.
type Organs struct {
	Energy        *energy.Organ
	Growth        *growth.Grower
	Network       *network.Organ
	Healing       *healing.ScarTissue
	Agents        *agents.Registry
	Capabilities  *capabilities.Registry
	Autonomy      *autonomy.Engine
	Dreaming      *dreaming.Engine
	Consciousness *dreaming.Consciousness
	Emotion       *introspection.EmotionalCore
	Memory        *introspection.AutobiographicalMemory
	InnerVoice    *introspection.InnerVoice
	Prediction    *introspection.PredictionEngine
	SelfModel     *introspection.SelfModel
}

// New builds a Scheduler. interval is the sleep between ticks
// (LIFECYCLE_INTERVAL); seasonTurnEvery/pulseEvery are the tick-count
// cadences for phases 4 and 7.
func New(store storage.Store, bus *hormonebus.Bus, budget *autonomy.TickBudget, organs Organs,
	interval time.Duration, seasonTurnEvery, pulseEvery int, broadcaster Broadcaster, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:           store,
		bus:             bus,
		budget:          budget,
		log:             logger.With("organ", "scheduler"),
		interval:        interval,
		seasonTurnEvery: seasonTurnEvery,
		pulseEvery:      pulseEvery,
		energy:          organs.Energy,
		growth:          organs.Growth,
		network:         organs.Network,
		healing:         organs.Healing,
		agents:          organs.Agents,
		caps:            organs.Capabilities,
		autonomy:        organs.Autonomy,
		dreaming:        organs.Dreaming,
		consciousness:   organs.Consciousness,
		emotion:         organs.Emotion,
		memory:          organs.Memory,
		innerVoice:      organs.InnerVoice,
		prediction:      organs.Prediction,
		selfModel:       organs.SelfModel,
		broadcaster:     broadcaster,
	}
}

func (s *Scheduler) broadcast(event string, data map[string]any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(event, data)
}

// Run blocks, sleeping interval between ticks, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("autonomous lifecycle started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("lifecycle loop stopping")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick advances the organism by exactly one nine-phase cycle. Exported
// so callers (and tests) can drive the scheduler without waiting on its
// sleep interval. A failure in any phase is logged and the remaining
// phases still run — all phase state is durable, so a partial tick
// never corrupts the next one.
func (s *Scheduler) Tick(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.tick")
	defer span.End()

	s.tick++
	s.budget.Reset()
	s.log.Info("tick starting", "tick", s.tick)

	livingSeeds := s.traced(ctx, "phase1_energy_and_promotion", func(ctx context.Context) []*domain.Seed {
		return s.phase1EnergyAndPromotion(ctx)
	})
	s.tracedVoid(ctx, "phase2_harvest_compost", func(ctx context.Context) { s.phase2and3HarvestCompost(ctx, livingSeeds) })
	s.tracedVoid(ctx, "phase3_agent_orchestration", s.phase3AgentOrchestration)

	if s.tick%int64(s.seasonTurnEvery) == 0 {
		s.tracedVoid(ctx, "phase4_season_turn", s.phase4SeasonTurn)
	}

	s.tracedVoid(ctx, "phase5_mycelium", s.phase5Mycelium)

	if s.tick%int64(s.seasonTurnEvery) == 0 || s.tick%4 == 0 {
		s.tracedVoid(ctx, "phase6_dream", s.phase6Dream)
	}

	if s.pulseEvery > 0 && s.tick%int64(s.pulseEvery) == 0 {
		s.tracedVoid(ctx, "phase7_pulse", s.phase7Pulse)
	}

	s.tracedVoid(ctx, "phase8_introspection", s.phase8Introspection)

	s.bus.FlushSlowRelease(ctx)
	s.log.Info("tick complete", "tick", s.tick)
}

// tracedVoid wraps a phase method with its own span.
func (s *Scheduler) tracedVoid(ctx context.Context, name string, phase func(context.Context)) {
	ctx, span := tracing.StartSpan(ctx, name)
	defer span.End()
	phase(ctx)
}

// traced wraps a phase method that returns a value with its own span.
func (s *Scheduler) traced(ctx context.Context, name string, phase func(context.Context) []*domain.Seed) []*domain.Seed {
	ctx, span := tracing.StartSpan(ctx, name)
	defer span.End()
	return phase(ctx)
}

func (s *Scheduler) phase1EnergyAndPromotion(ctx context.Context) []*domain.Seed {
	var living []*domain.Seed
	for _, status := range []string{domain.SeedStatusPlanted, domain.SeedStatusGrowing} {
		seeds, err := s.store.ListSeedsByStatus(ctx, status)
		if err != nil {
			s.log.Error("phase1: list seeds failed", "status", status, "error", err)
			continue
		}
		living = append(living, seeds...)
	}

	for _, seed := range living {
		if _, err := s.energy.Photosynthesize(ctx, seed, AutoWaterAttentionSeconds); err != nil {
			s.log.Error("phase1: photosynthesize failed", "seed_id", seed.ID, "error", err)
		}
		sprouts, err := s.store.ListSproutsBySeed(ctx, seed.ID)
		if err != nil {
			s.log.Error("phase1: list sprouts failed", "seed_id", seed.ID, "error", err)
			sprouts = nil
		}
		if err := s.energy.PhloemDistribute(ctx, seed, sprouts); err != nil {
			s.log.Error("phase1: phloem distribute failed", "seed_id", seed.ID, "error", err)
		}
		if err := s.energy.MycorrhizalRedistribute(ctx, sprouts); err != nil {
			s.log.Error("phase1: mycorrhizal redistribute failed", "seed_id", seed.ID, "error", err)
		}
		if autonomy.ShouldPromote(seed) && seed.Status == domain.SeedStatusPlanted {
			seed.Status = domain.SeedStatusGrowing
			if err := s.store.SaveSeed(ctx, seed); err != nil {
				s.log.Error("phase1: promote failed", "seed_id", seed.ID, "error", err)
				continue
			}
			s.broadcast("auto_promote", map[string]any{"seed_id": seed.ID, "essence": seed.Essence})
		}
	}

	if len(living) > 0 {
		s.broadcast("auto_water", map[string]any{"count": len(living), "tick": s.tick})
	}
	return living
}

func (s *Scheduler) phase2and3HarvestCompost(ctx context.Context, seeds []*domain.Seed) {
	bias := s.emotion.DecisionBias()

	for _, seed := range seeds {
		sprouts, err := s.store.ListSproutsBySeed(ctx, seed.ID)
		if err != nil {
			s.log.Error("phase2: list sprouts failed", "seed_id", seed.ID, "error", err)
			continue
		}

		switch {
		case s.autonomy.ShouldHarvest(ctx, seed, sprouts):
			seed.Status = domain.SeedStatusHarvested
			if err := s.store.SaveSeed(ctx, seed); err != nil {
				s.log.Error("phase3: harvest failed", "seed_id", seed.ID, "error", err)
				continue
			}
			s.broadcast("auto_harvest", map[string]any{"seed_id": seed.ID, "essence": seed.Essence})
			if pollinated, err := s.network.Pollinate(ctx, seed); err != nil {
				s.log.Error("phase2: pollinate failed", "seed_id", seed.ID, "error", err)
			} else if pollinated > 0 {
				s.broadcast("pollination", map[string]any{"source_seed_id": seed.ID, "pollinated_count": pollinated})
			}
		case s.autonomy.ShouldCompost(ctx, seed, sprouts):
			if bias.Conservatism > 0.5 && rand.Float64() < bias.Conservatism*0.4 {
				s.log.Info("emotional override: too anxious to compost", "seed_id", seed.ID)
				continue
			}
			seed.Status = domain.SeedStatusComposted
			seed.IsComposted = true
			if err := s.store.SaveSeed(ctx, seed); err != nil {
				s.log.Error("phase3: compost failed", "seed_id", seed.ID, "error", err)
				continue
			}
			s.broadcast("auto_compost", map[string]any{"seed_id": seed.ID, "essence": seed.Essence})
		}
	}
}

func (s *Scheduler) phase3AgentOrchestration(ctx context.Context) {
	completed, err := s.agents.GetCompleted(ctx)
	if err != nil {
		s.log.Error("phase3: get completed failed", "error", err)
	}
	for _, a := range completed {
		if _, err := s.agents.Retire(ctx, a.ID, "task complete"); err != nil {
			s.log.Error("phase3: retire failed", "agent_id", a.ID, "error", err)
		}
	}

	idle, err := s.agents.GetIdle(ctx)
	if err != nil {
		s.log.Error("phase3: get idle failed", "error", err)
		idle = nil
	}
	if len(idle) > 4 {
		idle = idle[:4]
	}

	type execSpec struct {
		id         string
		agentType  string
		capability map[string]any
	}
	specs := make([]execSpec, 0, len(idle))
	for _, a := range idle {
		if _, err := s.agents.StartWork(ctx, a.ID); err != nil {
			s.log.Error("phase3: start work failed", "agent_id", a.ID, "error", err)
			continue
		}
		params := map[string]any{"task": a.TaskDescription}
		for k, v := range a.Capability {
			params[k] = v
		}
		specs = append(specs, execSpec{id: a.ID, agentType: a.Type, capability: params})
	}

	for _, spec := range specs {
		result := s.caps.Execute(ctx, spec.agentType, spec.capability)
		if result.Success {
			if _, err := s.agents.Complete(ctx, spec.id, result.Output, nil); err != nil {
				s.log.Error("phase3: complete failed", "agent_id", spec.id, "error", err)
			}
		} else {
			if _, err := s.agents.Fail(ctx, spec.id, result.Error); err != nil {
				s.log.Error("phase3: fail failed", "agent_id", spec.id, "error", err)
			}
		}
	}

	newlyCompleted, err := s.agents.GetCompleted(ctx)
	if err != nil {
		s.log.Error("phase3: get newly completed failed", "error", err)
	}
	for _, a := range newlyCompleted {
		if _, err := s.agents.Retire(ctx, a.ID, "task complete"); err != nil {
			s.log.Error("phase3: retire newly completed failed", "agent_id", a.ID, "error", err)
		}
	}

	growing, err := s.store.ListSeedsByStatus(ctx, domain.SeedStatusGrowing)
	if err != nil {
		s.log.Error("phase3: list growing seeds failed", "error", err)
		return
	}
	planned := 0
	for _, seed := range growing {
		if planned >= 2 {
			break
		}
		existing, err := s.agents.GetForSeed(ctx, seed.ID)
		if err != nil {
			s.log.Error("phase3: get for seed failed", "seed_id", seed.ID, "error", err)
			continue
		}
		tasks := s.autonomy.PlanMission(ctx, seed, existing)
		if len(tasks) == 0 {
			continue
		}
		planned++
		for _, task := range tasks {
			if _, err := s.agents.Spawn(ctx, task.AgentType, task.Task, &seed.ID, nil, nil); err != nil {
				s.log.Error("phase3: spawn failed", "seed_id", seed.ID, "agent_type", task.AgentType, "error", err)
			}
		}
	}
}

func (s *Scheduler) phase4SeasonTurn(ctx context.Context) {
	forced := ""
	if s.healing != nil && s.healing.ConsumeEmergencyWinter() {
		forced = "winter"
		s.log.Warn("emergency winter forced by a severe wound")
	}
	if err := s.network.TurnSeason(ctx, forced); err != nil {
		s.log.Error("phase4: turn season failed", "error", err)
		return
	}
	garden, err := s.store.GetGardenState(ctx)
	if err != nil {
		s.log.Error("phase4: get garden state failed", "error", err)
		return
	}
	newSeason := garden.CurrentSeason

	var sprouts []*domain.Sprout
	for _, status := range []string{domain.SproutStatusBudding, domain.SproutStatusWilting} {
		batch, err := s.store.ListSproutsByStatus(ctx, status)
		if err != nil {
			s.log.Error("phase4: list sprouts failed", "status", status, "error", err)
			continue
		}
		sprouts = append(sprouts, batch...)
	}
	if err := s.energy.ApplyEntropy(ctx, sprouts, newSeason); err != nil {
		s.log.Error("phase4: apply entropy failed", "error", err)
	}
	s.log.Info("auto season turn", "season", newSeason)
}

func (s *Scheduler) phase5Mycelium(ctx context.Context) {
	if _, err := s.network.ScanForSymbiosis(ctx); err != nil {
		s.log.Error("phase5: scan for symbiosis failed", "error", err)
	}
	state, err := s.store.GetGardenState(ctx)
	if err != nil {
		s.log.Error("phase5: get garden state failed", "error", err)
		return
	}
	living, err := s.store.ListAllSeeds(ctx)
	if err != nil {
		s.log.Error("phase5: list seeds failed", "error", err)
		return
	}
	themeSet := map[string]bool{}
	for _, seed := range living {
		for _, t := range seed.Themes {
			themeSet[t] = true
		}
	}
	for theme := range themeSet {
		reached, err := s.network.QuorumReached(ctx, theme, len(living))
		if err != nil {
			s.log.Error("phase5: quorum check failed", "theme", theme, "error", err)
			continue
		}
		if reached {
			s.broadcast("quorum_reached", map[string]any{"theme": theme})
		}
	}
	_ = state

	transferred, err := s.network.ShareNutrients(ctx)
	if err != nil {
		s.log.Error("phase5: share nutrients failed", "error", err)
		return
	}
	if transferred > 0 {
		s.log.Info("mycelium shared nutrients", "total_transferred", transferred)
	}
}

func (s *Scheduler) phase6Dream(ctx context.Context) {
	temperature := 0.8
	dream, err := s.dreaming.Dream(ctx, temperature)
	if err != nil {
		s.log.Error("phase6: dream failed", "error", err)
		return
	}
	if dream == nil {
		return
	}

	novelty := 0.7
	if dream.IsLucid {
		novelty = 0.3
	}
	if s.autonomy.ShouldPlantDream(ctx, dream, novelty) {
		seed, err := s.dreaming.PlantDream(ctx, dream.ID)
		if err != nil {
			s.log.Error("phase6: plant dream failed", "dream_id", dream.ID, "error", err)
			return
		}
		if seed != nil {
			if _, err := s.growth.Grow(ctx, seed); err != nil {
				s.log.Error("phase6: grow planted dream failed", "seed_id", seed.ID, "error", err)
			}
			s.broadcast("auto_dream_planted", map[string]any{
				"dream_id": dream.ID, "seed_id": seed.ID, "insight": dream.Content,
			})
			s.log.Info("auto-planted dream", "dream_id", dream.ID, "seed_id", seed.ID)
		}
	}
}

func (s *Scheduler) phase7Pulse(ctx context.Context) {
	if _, err := s.consciousness.Pulse(ctx); err != nil {
		s.log.Error("phase7: pulse failed", "error", err)
		return
	}
	s.broadcast("auto_pulse", map[string]any{"tick": s.tick})
}

func (s *Scheduler) phase8Introspection(ctx context.Context) *domain.EmotionalState {
	emotional, err := s.emotion.ProcessTick(ctx)
	if err != nil {
		s.log.Error("phase8a: emotion tick failed", "error", err)
	}

	if _, err := s.memory.ProcessTick(ctx, emotional); err != nil {
		s.log.Error("phase8b: memory tick failed", "error", err)
	}

	if _, err := s.innerVoice.Think(ctx, emotional); err != nil {
		s.log.Error("phase8c: inner voice failed", "error", err)
	}

	if _, err := s.prediction.ResolvePredictions(ctx); err != nil {
		s.log.Error("phase8d: resolve predictions failed", "error", err)
	}
	if _, err := s.prediction.MakePredictions(ctx); err != nil {
		s.log.Error("phase8d: make predictions failed", "error", err)
	}

	if s.tick%10 == 0 {
		snapshot, err := s.selfModel.Introspect(ctx, s.prediction.Accuracy())
		if err != nil {
			s.log.Error("phase8e: introspect failed", "error", err)
		} else if snapshot != nil && snapshot.IdentityNarrative != "" {
			s.broadcast("identity_update", map[string]any{
				"narrative": snapshot.IdentityNarrative,
				"traits":    snapshot.PersonalityTraits,
			})
		}
	}

	if s.tick%20 == 0 {
		if _, err := s.memory.Consolidate(ctx); err != nil {
			s.log.Error("phase8f: consolidate failed", "error", err)
		}
	}

	return emotional
}
