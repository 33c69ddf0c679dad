// Package storage persists the organism's state through bun, following the
// same BunStore-wraps-*bun.DB shape the workflow engine this was adapted
// from used for its own Postgres-backed store.
package storage

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/w0rd-garden/w0rd/internal/domain"
)

// Store is everything the tick scheduler and the organ packages need from
// persistence. A Postgres-backed BunStore satisfies it in production; the
// in-memory Fake in memory.go satisfies it in tests.
type Store interface {
	GetGardenState(ctx context.Context) (*domain.GardenState, error)
	SaveGardenState(ctx context.Context, g *domain.GardenState) error

	GetOrCreateGardener(ctx context.Context, id string) (*domain.Gardener, error)
	SaveGardener(ctx context.Context, g *domain.Gardener) error

	SaveSeed(ctx context.Context, s *domain.Seed) error
	GetSeed(ctx context.Context, id string) (*domain.Seed, error)
	ListSeedsByStatus(ctx context.Context, status string) ([]*domain.Seed, error)
	ListAllSeeds(ctx context.Context) ([]*domain.Seed, error)

	SaveSprout(ctx context.Context, s *domain.Sprout) error
	GetSprout(ctx context.Context, id string) (*domain.Sprout, error)
	ListSproutsBySeed(ctx context.Context, seedID string) ([]*domain.Sprout, error)
	ListSproutsByStatus(ctx context.Context, status string) ([]*domain.Sprout, error)

	SaveSymbioticLink(ctx context.Context, l *domain.SymbioticLink) error
	ListSymbioticLinks(ctx context.Context) ([]*domain.SymbioticLink, error)

	UpsertEthicalMemory(ctx context.Context, e *domain.EthicalMemory) error
	ListEthicalMemories(ctx context.Context) ([]*domain.EthicalMemory, error)

	SaveDream(ctx context.Context, d *domain.Dream) error
	ListDreams(ctx context.Context, limit int) ([]*domain.Dream, error)

	SavePulseReport(ctx context.Context, p *domain.PulseReport) error
	GetLatestPulseReport(ctx context.Context) (*domain.PulseReport, error)

	SaveWoundRecord(ctx context.Context, w *domain.WoundRecord) error
	ListUnhealedWounds(ctx context.Context) ([]*domain.WoundRecord, error)
	ListRecentWounds(ctx context.Context, limit int) ([]*domain.WoundRecord, error)

	SaveAgentNode(ctx context.Context, a *domain.AgentNode) error
	GetAgentNode(ctx context.Context, id string) (*domain.AgentNode, error)
	ListAgentNodesByStatus(ctx context.Context, statuses ...string) ([]*domain.AgentNode, error)
	ListAgentNodesForSeed(ctx context.Context, seedID string) ([]*domain.AgentNode, error)

	SaveEmotionalState(ctx context.Context, e *domain.EmotionalState) error
	GetLatestEmotionalState(ctx context.Context) (*domain.EmotionalState, error)

	SaveInnerThought(ctx context.Context, t *domain.InnerThought) error
	ListRecentInnerThoughts(ctx context.Context, limit int) ([]*domain.InnerThought, error)

	SaveEpisodicMemory(ctx context.Context, e *domain.EpisodicMemory) error
	ListEpisodicMemories(ctx context.Context) ([]*domain.EpisodicMemory, error)
	DeleteEpisodicMemories(ctx context.Context, ids []string) error

	SavePrediction(ctx context.Context, p *domain.Prediction) error
	ListUnresolvedPredictions(ctx context.Context) ([]*domain.Prediction, error)

	SaveSelfModelSnapshot(ctx context.Context, s *domain.SelfModelSnapshot) error
	GetLatestSelfModelSnapshot(ctx context.Context) (*domain.SelfModelSnapshot, error)

	AppendHormoneLog(ctx context.Context, h *domain.HormoneLog) error

	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BunStore is the Postgres-backed Store implementation.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*GardenStateModel)(nil),
		(*GardenerModel)(nil),
		(*SeedModel)(nil),
		(*SproutModel)(nil),
		(*SymbioticLinkModel)(nil),
		(*EthicalMemoryModel)(nil),
		(*DreamModel)(nil),
		(*PulseReportModel)(nil),
		(*WoundRecordModel)(nil),
		(*AgentNodeModel)(nil),
		(*EmotionalStateModel)(nil),
		(*InnerThoughtModel)(nil),
		(*EpisodicMemoryModel)(nil),
		(*PredictionModel)(nil),
		(*SelfModelSnapshotModel)(nil),
		(*HormoneLogModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, _ bun.Tx) error {
		return fn(ctx)
	})
}

func (s *BunStore) GetGardenState(ctx context.Context) (*domain.GardenState, error) {
	model := new(GardenStateModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", domain.GardenSingletonID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) SaveGardenState(ctx context.Context, g *domain.GardenState) error {
	model := NewGardenStateModel(g)
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) GetOrCreateGardener(ctx context.Context, id string) (*domain.Gardener, error) {
	model := new(GardenerModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err == nil {
		return model.ToDomain(), nil
	}
	g := &domain.Gardener{
		ID:               id,
		PheromoneTrails:  map[string]int{},
		RhythmProfile:    map[int]int{},
		PreferenceVector: map[string]float64{},
	}
	if err := s.SaveGardener(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *BunStore) SaveGardener(ctx context.Context, g *domain.Gardener) error {
	model := NewGardenerModel(g)
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) SaveSeed(ctx context.Context, seed *domain.Seed) error {
	model := NewSeedModel(seed)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetSeed(ctx context.Context, id string) (*domain.Seed, error) {
	model := new(SeedModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) ListSeedsByStatus(ctx context.Context, status string) ([]*domain.Seed, error) {
	var models []SeedModel
	if err := s.db.NewSelect().Model(&models).Where("status = ?", status).Scan(ctx); err != nil {
		return nil, err
	}
	return toSeedSlice(models), nil
}

func (s *BunStore) ListAllSeeds(ctx context.Context) ([]*domain.Seed, error) {
	var models []SeedModel
	if err := s.db.NewSelect().Model(&models).Scan(ctx); err != nil {
		return nil, err
	}
	return toSeedSlice(models), nil
}

func toSeedSlice(models []SeedModel) []*domain.Seed {
	out := make([]*domain.Seed, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out
}

func (s *BunStore) SaveSprout(ctx context.Context, sprout *domain.Sprout) error {
	model := NewSproutModel(sprout)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetSprout(ctx context.Context, id string) (*domain.Sprout, error) {
	model := new(SproutModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) ListSproutsBySeed(ctx context.Context, seedID string) ([]*domain.Sprout, error) {
	var models []SproutModel
	if err := s.db.NewSelect().Model(&models).Where("seed_id = ?", seedID).Scan(ctx); err != nil {
		return nil, err
	}
	return toSproutSlice(models), nil
}

func (s *BunStore) ListSproutsByStatus(ctx context.Context, status string) ([]*domain.Sprout, error) {
	var models []SproutModel
	if err := s.db.NewSelect().Model(&models).Where("status = ?", status).Scan(ctx); err != nil {
		return nil, err
	}
	return toSproutSlice(models), nil
}

func toSproutSlice(models []SproutModel) []*domain.Sprout {
	out := make([]*domain.Sprout, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out
}

func (s *BunStore) SaveSymbioticLink(ctx context.Context, l *domain.SymbioticLink) error {
	model := NewSymbioticLinkModel(l)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListSymbioticLinks(ctx context.Context) ([]*domain.SymbioticLink, error) {
	var models []SymbioticLinkModel
	if err := s.db.NewSelect().Model(&models).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.SymbioticLink, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) UpsertEthicalMemory(ctx context.Context, e *domain.EthicalMemory) error {
	model := NewEthicalMemoryModel(e)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListEthicalMemories(ctx context.Context) ([]*domain.EthicalMemory, error) {
	var models []EthicalMemoryModel
	if err := s.db.NewSelect().Model(&models).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.EthicalMemory, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) SaveDream(ctx context.Context, d *domain.Dream) error {
	model := NewDreamModel(d)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListDreams(ctx context.Context, limit int) ([]*domain.Dream, error) {
	var models []DreamModel
	q := s.db.NewSelect().Model(&models).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.Dream, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) SavePulseReport(ctx context.Context, p *domain.PulseReport) error {
	model := NewPulseReportModel(p)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetLatestPulseReport(ctx context.Context) (*domain.PulseReport, error) {
	model := new(PulseReportModel)
	err := s.db.NewSelect().Model(model).Order("created_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) SaveWoundRecord(ctx context.Context, w *domain.WoundRecord) error {
	model := NewWoundRecordModel(w)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListUnhealedWounds(ctx context.Context) ([]*domain.WoundRecord, error) {
	var models []WoundRecordModel
	if err := s.db.NewSelect().Model(&models).Where("healed_at IS NULL").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.WoundRecord, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) ListRecentWounds(ctx context.Context, limit int) ([]*domain.WoundRecord, error) {
	var models []WoundRecordModel
	q := s.db.NewSelect().Model(&models).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.WoundRecord, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) SaveAgentNode(ctx context.Context, a *domain.AgentNode) error {
	model := NewAgentNodeModel(a)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetAgentNode(ctx context.Context, id string) (*domain.AgentNode, error) {
	model := new(AgentNodeModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) ListAgentNodesByStatus(ctx context.Context, statuses ...string) ([]*domain.AgentNode, error) {
	var models []AgentNodeModel
	if err := s.db.NewSelect().Model(&models).Where("status IN (?)", bun.In(statuses)).Scan(ctx); err != nil {
		return nil, err
	}
	return toAgentSlice(models), nil
}

func (s *BunStore) ListAgentNodesForSeed(ctx context.Context, seedID string) ([]*domain.AgentNode, error) {
	var models []AgentNodeModel
	if err := s.db.NewSelect().Model(&models).Where("seed_id = ?", seedID).Scan(ctx); err != nil {
		return nil, err
	}
	return toAgentSlice(models), nil
}

func toAgentSlice(models []AgentNodeModel) []*domain.AgentNode {
	out := make([]*domain.AgentNode, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out
}

func (s *BunStore) SaveEmotionalState(ctx context.Context, e *domain.EmotionalState) error {
	model := NewEmotionalStateModel(e)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetLatestEmotionalState(ctx context.Context) (*domain.EmotionalState, error) {
	model := new(EmotionalStateModel)
	err := s.db.NewSelect().Model(model).Order("updated_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) SaveInnerThought(ctx context.Context, t *domain.InnerThought) error {
	model := NewInnerThoughtModel(t)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListRecentInnerThoughts(ctx context.Context, limit int) ([]*domain.InnerThought, error) {
	var models []InnerThoughtModel
	if err := s.db.NewSelect().Model(&models).Order("created_at DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.InnerThought, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) SaveEpisodicMemory(ctx context.Context, e *domain.EpisodicMemory) error {
	model := NewEpisodicMemoryModel(e)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListEpisodicMemories(ctx context.Context) ([]*domain.EpisodicMemory, error) {
	var models []EpisodicMemoryModel
	if err := s.db.NewSelect().Model(&models).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.EpisodicMemory, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) DeleteEpisodicMemories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().Model((*EpisodicMemoryModel)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	return err
}

func (s *BunStore) SavePrediction(ctx context.Context, p *domain.Prediction) error {
	model := NewPredictionModel(p)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) ListUnresolvedPredictions(ctx context.Context) ([]*domain.Prediction, error) {
	var models []PredictionModel
	if err := s.db.NewSelect().Model(&models).Where("resolved = false").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.Prediction, len(models))
	for i := range models {
		out[i] = models[i].ToDomain()
	}
	return out, nil
}

func (s *BunStore) SaveSelfModelSnapshot(ctx context.Context, snap *domain.SelfModelSnapshot) error {
	model := NewSelfModelSnapshotModel(snap)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

func (s *BunStore) GetLatestSelfModelSnapshot(ctx context.Context) (*domain.SelfModelSnapshot, error) {
	model := new(SelfModelSnapshotModel)
	err := s.db.NewSelect().Model(model).Order("created_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) AppendHormoneLog(ctx context.Context, h *domain.HormoneLog) error {
	model := NewHormoneLogModel(h)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}
