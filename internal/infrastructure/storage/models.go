package storage

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/w0rd-garden/w0rd/internal/domain"
)

type GardenStateModel struct {
	bun.BaseModel `bun:"table:garden_states,alias:gs"`

	ID                 string    `bun:"id,pk"`
	TotalEnergy        float64   `bun:"total_energy"`
	WisdomScore        float64   `bun:"wisdom_score"`
	AntifragilityScore float64   `bun:"antifragility_score"`
	LastPulseAt        time.Time `bun:"last_pulse_at,nullzero"`
	CurrentSeason      string    `bun:"current_season"`
	SeasonStartedAt    time.Time `bun:"season_started_at"`
	TickCount          int64     `bun:"tick_count"`
	CreatedAt          time.Time `bun:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at"`
}

func (m *GardenStateModel) ToDomain() *domain.GardenState {
	g := &domain.GardenState{
		ID:                 m.ID,
		TotalEnergy:        m.TotalEnergy,
		WisdomScore:        m.WisdomScore,
		AntifragilityScore: m.AntifragilityScore,
		CurrentSeason:      m.CurrentSeason,
		SeasonStartedAt:    m.SeasonStartedAt,
		TickCount:          m.TickCount,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if !m.LastPulseAt.IsZero() {
		t := m.LastPulseAt
		g.LastPulseAt = &t
	}
	return g
}

func NewGardenStateModel(g *domain.GardenState) *GardenStateModel {
	m := &GardenStateModel{
		ID:                 g.ID,
		TotalEnergy:        g.TotalEnergy,
		WisdomScore:        g.WisdomScore,
		AntifragilityScore: g.AntifragilityScore,
		CurrentSeason:      g.CurrentSeason,
		SeasonStartedAt:    g.SeasonStartedAt,
		TickCount:          g.TickCount,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
	if g.LastPulseAt != nil {
		m.LastPulseAt = *g.LastPulseAt
	}
	return m
}

type GardenerModel struct {
	bun.BaseModel `bun:"table:gardeners,alias:gd"`

	ID               string             `bun:"id,pk"`
	InteractionCount int                `bun:"interaction_count"`
	PheromoneTrails  map[string]int     `bun:"pheromone_trails,type:jsonb"`
	RhythmProfile    map[int]int        `bun:"rhythm_profile,type:jsonb"`
	PreferenceVector map[string]float64 `bun:"preference_vector,type:jsonb"`
	CreatedAt        time.Time          `bun:"created_at"`
	UpdatedAt        time.Time          `bun:"updated_at"`
}

func (m *GardenerModel) ToDomain() *domain.Gardener {
	return &domain.Gardener{
		ID:               m.ID,
		InteractionCount: m.InteractionCount,
		PheromoneTrails:  m.PheromoneTrails,
		RhythmProfile:    m.RhythmProfile,
		PreferenceVector: m.PreferenceVector,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func NewGardenerModel(g *domain.Gardener) *GardenerModel {
	return &GardenerModel{
		ID:               g.ID,
		InteractionCount: g.InteractionCount,
		PheromoneTrails:  g.PheromoneTrails,
		RhythmProfile:    g.RhythmProfile,
		PreferenceVector: g.PreferenceVector,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

type SeedModel struct {
	bun.BaseModel `bun:"table:seeds,alias:sd"`

	ID           string    `bun:"id,pk"`
	Content      string    `bun:"content"`
	Essence      string    `bun:"essence"`
	Themes       []string  `bun:"themes,array"`
	Valence      float64   `bun:"valence"`
	Arousal      float64   `bun:"arousal"`
	Resonance    float64   `bun:"resonance"`
	EthicalScore float64   `bun:"ethical_score"`
	EthicalTags  []string  `bun:"ethical_tags,array"`
	Energy       float64   `bun:"energy"`
	Vitality     float64   `bun:"vitality"`
	Status       string    `bun:"status"`
	IsComposted  bool      `bun:"is_composted"`
	Embedding    []float64 `bun:"embedding,array"`
	CreatedAt    time.Time `bun:"created_at"`
	HarvestedAt  time.Time `bun:"harvested_at,nullzero"`
	ComposedAt   time.Time `bun:"composed_at,nullzero"`
}

func (m *SeedModel) ToDomain() *domain.Seed {
	s := &domain.Seed{
		ID:           m.ID,
		Content:      m.Content,
		Essence:      m.Essence,
		Themes:       m.Themes,
		Valence:      m.Valence,
		Arousal:      m.Arousal,
		Resonance:    m.Resonance,
		EthicalScore: m.EthicalScore,
		EthicalTags:  m.EthicalTags,
		Energy:       m.Energy,
		Vitality:     m.Vitality,
		Status:       m.Status,
		IsComposted:  m.IsComposted,
		Embedding:    m.Embedding,
		CreatedAt:    m.CreatedAt,
	}
	if !m.HarvestedAt.IsZero() {
		t := m.HarvestedAt
		s.HarvestedAt = &t
	}
	if !m.ComposedAt.IsZero() {
		t := m.ComposedAt
		s.ComposedAt = &t
	}
	return s
}

func NewSeedModel(s *domain.Seed) *SeedModel {
	m := &SeedModel{
		ID:           s.ID,
		Content:      s.Content,
		Essence:      s.Essence,
		Themes:       s.Themes,
		Valence:      s.Valence,
		Arousal:      s.Arousal,
		Resonance:    s.Resonance,
		EthicalScore: s.EthicalScore,
		EthicalTags:  s.EthicalTags,
		Energy:       s.Energy,
		Vitality:     s.Vitality,
		Status:       s.Status,
		IsComposted:  s.IsComposted,
		Embedding:    s.Embedding,
		CreatedAt:    s.CreatedAt,
	}
	if s.HarvestedAt != nil {
		m.HarvestedAt = *s.HarvestedAt
	}
	if s.ComposedAt != nil {
		m.ComposedAt = *s.ComposedAt
	}
	return m
}

type SproutModel struct {
	bun.BaseModel `bun:"table:sprouts,alias:sp"`

	ID             string    `bun:"id,pk"`
	SeedID         string    `bun:"seed_id"`
	ParentSproutID string    `bun:"parent_sprout_id,nullzero"`
	Depth          int       `bun:"depth"`
	Label          string    `bun:"label"`
	Description    string    `bun:"description"`
	Energy         float64   `bun:"energy"`
	Pressure       float64   `bun:"pressure"`
	EthicalScore   float64   `bun:"ethical_score"`
	Resonance      float64   `bun:"resonance"`
	Status         string    `bun:"status"`
	ApoptosisAt    time.Time `bun:"apoptosis_at,nullzero"`
	CreatedAt      time.Time `bun:"created_at"`
}

func (m *SproutModel) ToDomain() *domain.Sprout {
	s := &domain.Sprout{
		ID:           m.ID,
		SeedID:       m.SeedID,
		Depth:        m.Depth,
		Label:        m.Label,
		Description:  m.Description,
		Energy:       m.Energy,
		Pressure:     m.Pressure,
		EthicalScore: m.EthicalScore,
		Resonance:    m.Resonance,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
	}
	if m.ParentSproutID != "" {
		p := m.ParentSproutID
		s.ParentSproutID = &p
	}
	if !m.ApoptosisAt.IsZero() {
		t := m.ApoptosisAt
		s.ApoptosisAt = &t
	}
	return s
}

func NewSproutModel(s *domain.Sprout) *SproutModel {
	m := &SproutModel{
		ID:           s.ID,
		SeedID:       s.SeedID,
		Depth:        s.Depth,
		Label:        s.Label,
		Description:  s.Description,
		Energy:       s.Energy,
		Pressure:     s.Pressure,
		EthicalScore: s.EthicalScore,
		Resonance:    s.Resonance,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
	}
	if s.ParentSproutID != nil {
		m.ParentSproutID = *s.ParentSproutID
	}
	if s.ApoptosisAt != nil {
		m.ApoptosisAt = *s.ApoptosisAt
	}
	return m
}

// SymbioticLinkModel preserves the legacy sprout_a_id/sprout_b_id column
// names, which in this schema hold seed IDs. See DESIGN.md.
type SymbioticLinkModel struct {
	bun.BaseModel `bun:"table:symbiotic_links,alias:sl"`

	ID               string    `bun:"id,pk"`
	SproutAID        string    `bun:"sprout_a_id"`
	SproutBID        string    `bun:"sprout_b_id"`
	Strength         float64   `bun:"strength"`
	RelationshipType string    `bun:"relationship_type"`
	NutrientFlow     float64   `bun:"nutrient_flow"`
	RelatedTags      []string  `bun:"related_tags,array"`
	CreatedAt        time.Time `bun:"created_at"`
}

func (m *SymbioticLinkModel) ToDomain() *domain.SymbioticLink {
	return &domain.SymbioticLink{
		ID:               m.ID,
		SproutAID:        m.SproutAID,
		SproutBID:        m.SproutBID,
		Strength:         m.Strength,
		RelationshipType: m.RelationshipType,
		NutrientFlow:     m.NutrientFlow,
		RelatedTags:      m.RelatedTags,
		CreatedAt:        m.CreatedAt,
	}
}

func NewSymbioticLinkModel(l *domain.SymbioticLink) *SymbioticLinkModel {
	return &SymbioticLinkModel{
		ID:               l.ID,
		SproutAID:        l.SproutAID,
		SproutBID:        l.SproutBID,
		Strength:         l.Strength,
		RelationshipType: l.RelationshipType,
		NutrientFlow:     l.NutrientFlow,
		RelatedTags:      l.RelatedTags,
		CreatedAt:        l.CreatedAt,
	}
}

type EthicalMemoryModel struct {
	bun.BaseModel `bun:"table:ethical_memories,alias:em"`

	ID          string    `bun:"id,pk"`
	PatternHash string    `bun:"pattern_hash"`
	Dimension   string    `bun:"dimension"`
	Strength    float64   `bun:"strength"`
	HitCount    int       `bun:"hit_count"`
	LastHitAt   time.Time `bun:"last_hit_at"`
	CreatedAt   time.Time `bun:"created_at"`
}

func (m *EthicalMemoryModel) ToDomain() *domain.EthicalMemory {
	return &domain.EthicalMemory{
		ID:          m.ID,
		PatternHash: m.PatternHash,
		Dimension:   m.Dimension,
		Strength:    m.Strength,
		HitCount:    m.HitCount,
		LastHitAt:   m.LastHitAt,
		CreatedAt:   m.CreatedAt,
	}
}

func NewEthicalMemoryModel(e *domain.EthicalMemory) *EthicalMemoryModel {
	return &EthicalMemoryModel{
		ID:          e.ID,
		PatternHash: e.PatternHash,
		Dimension:   e.Dimension,
		Strength:    e.Strength,
		HitCount:    e.HitCount,
		LastHitAt:   e.LastHitAt,
		CreatedAt:   e.CreatedAt,
	}
}

type DreamModel struct {
	bun.BaseModel `bun:"table:dreams,alias:dr"`

	ID        string    `bun:"id,pk"`
	SeedID    string    `bun:"seed_id,nullzero"`
	Content   string    `bun:"content"`
	Themes    []string  `bun:"themes,array"`
	IsLucid   bool      `bun:"is_lucid"`
	Planted   bool      `bun:"planted"`
	CreatedAt time.Time `bun:"created_at"`
}

func (m *DreamModel) ToDomain() *domain.Dream {
	d := &domain.Dream{
		ID:        m.ID,
		Content:   m.Content,
		Themes:    m.Themes,
		IsLucid:   m.IsLucid,
		Planted:   m.Planted,
		CreatedAt: m.CreatedAt,
	}
	if m.SeedID != "" {
		s := m.SeedID
		d.SeedID = &s
	}
	return d
}

func NewDreamModel(d *domain.Dream) *DreamModel {
	m := &DreamModel{
		ID:        d.ID,
		Content:   d.Content,
		Themes:    d.Themes,
		IsLucid:   d.IsLucid,
		Planted:   d.Planted,
		CreatedAt: d.CreatedAt,
	}
	if d.SeedID != nil {
		m.SeedID = *d.SeedID
	}
	return m
}

type PulseReportModel struct {
	bun.BaseModel `bun:"table:pulse_reports,alias:pr"`

	ID                string    `bun:"id,pk"`
	Summary           string    `bun:"summary"`
	ThrivingSeedIDs   []string  `bun:"thriving_seed_ids,array"`
	StrugglingSeedIDs []string  `bun:"struggling_seed_ids,array"`
	HealingSeedIDs    []string  `bun:"healing_seed_ids,array"`
	DreamingThemes    []string  `bun:"dreaming_themes,array"`
	EmergentThemes    []string  `bun:"emergent_themes,array"`
	WisdomScore       float64   `bun:"wisdom_score"`
	CreatedAt         time.Time `bun:"created_at"`
}

func (m *PulseReportModel) ToDomain() *domain.PulseReport {
	return &domain.PulseReport{
		ID:                m.ID,
		Summary:           m.Summary,
		ThrivingSeedIDs:   m.ThrivingSeedIDs,
		StrugglingSeedIDs: m.StrugglingSeedIDs,
		HealingSeedIDs:    m.HealingSeedIDs,
		DreamingThemes:    m.DreamingThemes,
		EmergentThemes:    m.EmergentThemes,
		WisdomScore:       m.WisdomScore,
		CreatedAt:         m.CreatedAt,
	}
}

func NewPulseReportModel(p *domain.PulseReport) *PulseReportModel {
	return &PulseReportModel{
		ID:                p.ID,
		Summary:           p.Summary,
		ThrivingSeedIDs:   p.ThrivingSeedIDs,
		StrugglingSeedIDs: p.StrugglingSeedIDs,
		HealingSeedIDs:    p.HealingSeedIDs,
		DreamingThemes:    p.DreamingThemes,
		EmergentThemes:    p.EmergentThemes,
		WisdomScore:       p.WisdomScore,
		CreatedAt:         p.CreatedAt,
	}
}

type WoundRecordModel struct {
	bun.BaseModel `bun:"table:wound_records,alias:wr"`

	ID                  string    `bun:"id,pk"`
	SeedID              string    `bun:"seed_id"`
	Severity            float64   `bun:"severity"`
	Cause               string    `bun:"cause"`
	HealingAction       string    `bun:"healing_action"`
	ScarLesson          string    `bun:"scar_lesson"`
	AntifragilityGained float64   `bun:"antifragility_gained"`
	HealedAt            time.Time `bun:"healed_at,nullzero"`
	CreatedAt           time.Time `bun:"created_at"`
}

func (m *WoundRecordModel) ToDomain() *domain.WoundRecord {
	w := &domain.WoundRecord{
		ID:                  m.ID,
		SeedID:              m.SeedID,
		Severity:            m.Severity,
		Cause:               m.Cause,
		HealingAction:       m.HealingAction,
		ScarLesson:          m.ScarLesson,
		AntifragilityGained: m.AntifragilityGained,
		CreatedAt:           m.CreatedAt,
	}
	if !m.HealedAt.IsZero() {
		t := m.HealedAt
		w.HealedAt = &t
	}
	return w
}

func NewWoundRecordModel(w *domain.WoundRecord) *WoundRecordModel {
	m := &WoundRecordModel{
		ID:                  w.ID,
		SeedID:              w.SeedID,
		Severity:            w.Severity,
		Cause:               w.Cause,
		HealingAction:       w.HealingAction,
		ScarLesson:          w.ScarLesson,
		AntifragilityGained: w.AntifragilityGained,
		CreatedAt:           w.CreatedAt,
	}
	if w.HealedAt != nil {
		m.HealedAt = *w.HealedAt
	}
	return m
}

type AgentNodeModel struct {
	bun.BaseModel `bun:"table:agent_nodes,alias:an"`

	ID              string         `bun:"id,pk"`
	Type            string         `bun:"type"`
	Name            string         `bun:"name"`
	SeedID          string         `bun:"seed_id,nullzero"`
	ParentID        string         `bun:"parent_id,nullzero"`
	TaskDescription string         `bun:"task_description"`
	Capability      map[string]any `bun:"capability,type:jsonb"`
	Status          string         `bun:"status"`
	Context         map[string]any `bun:"context,type:jsonb"`
	Result          string         `bun:"result"`
	Error           string         `bun:"error"`
	StartedAt       time.Time      `bun:"started_at,nullzero"`
	CompletedAt     time.Time      `bun:"completed_at,nullzero"`
	RetiredAt       time.Time      `bun:"retired_at,nullzero"`
	CreatedAt       time.Time      `bun:"created_at"`
}

func (m *AgentNodeModel) ToDomain() *domain.AgentNode {
	a := &domain.AgentNode{
		ID:              m.ID,
		Type:            m.Type,
		Name:            m.Name,
		TaskDescription: m.TaskDescription,
		Capability:      m.Capability,
		Status:          m.Status,
		Context:         m.Context,
		Result:          m.Result,
		Error:           m.Error,
		CreatedAt:       m.CreatedAt,
	}
	if m.SeedID != "" {
		s := m.SeedID
		a.SeedID = &s
	}
	if m.ParentID != "" {
		p := m.ParentID
		a.ParentID = &p
	}
	if !m.StartedAt.IsZero() {
		t := m.StartedAt
		a.StartedAt = &t
	}
	if !m.CompletedAt.IsZero() {
		t := m.CompletedAt
		a.CompletedAt = &t
	}
	if !m.RetiredAt.IsZero() {
		t := m.RetiredAt
		a.RetiredAt = &t
	}
	return a
}

func NewAgentNodeModel(a *domain.AgentNode) *AgentNodeModel {
	m := &AgentNodeModel{
		ID:              a.ID,
		Type:            a.Type,
		Name:            a.Name,
		TaskDescription: a.TaskDescription,
		Capability:      a.Capability,
		Status:          a.Status,
		Context:         a.Context,
		Result:          a.Result,
		Error:           a.Error,
		CreatedAt:       a.CreatedAt,
	}
	if a.SeedID != nil {
		m.SeedID = *a.SeedID
	}
	if a.ParentID != nil {
		m.ParentID = *a.ParentID
	}
	if a.StartedAt != nil {
		m.StartedAt = *a.StartedAt
	}
	if a.CompletedAt != nil {
		m.CompletedAt = *a.CompletedAt
	}
	if a.RetiredAt != nil {
		m.RetiredAt = *a.RetiredAt
	}
	return m
}

type EmotionalStateModel struct {
	bun.BaseModel `bun:"table:emotional_states,alias:es"`

	ID        string    `bun:"id,pk"`
	Joy       float64   `bun:"joy"`
	Grief     float64   `bun:"grief"`
	Anxiety   float64   `bun:"anxiety"`
	Curiosity float64   `bun:"curiosity"`
	Pride     float64   `bun:"pride"`
	Wonder    float64   `bun:"wonder"`
	CreatedAt time.Time `bun:"created_at"`
	UpdatedAt time.Time `bun:"updated_at"`
}

func (m *EmotionalStateModel) ToDomain() *domain.EmotionalState {
	return &domain.EmotionalState{
		ID:        m.ID,
		Joy:       m.Joy,
		Grief:     m.Grief,
		Anxiety:   m.Anxiety,
		Curiosity: m.Curiosity,
		Pride:     m.Pride,
		Wonder:    m.Wonder,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewEmotionalStateModel(e *domain.EmotionalState) *EmotionalStateModel {
	return &EmotionalStateModel{
		ID:        e.ID,
		Joy:       e.Joy,
		Grief:     e.Grief,
		Anxiety:   e.Anxiety,
		Curiosity: e.Curiosity,
		Pride:     e.Pride,
		Wonder:    e.Wonder,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

type InnerThoughtModel struct {
	bun.BaseModel `bun:"table:inner_thoughts,alias:it"`

	ID               string             `bun:"id,pk"`
	ThoughtType      string             `bun:"thought_type"`
	Content          string             `bun:"content"`
	EmotionalContext map[string]float64 `bun:"emotional_context,type:jsonb"`
	Trigger          string             `bun:"trigger"`
	Depth            int                `bun:"depth"`
	Salience         float64            `bun:"salience"`
	CreatedAt        time.Time          `bun:"created_at"`
}

func (m *InnerThoughtModel) ToDomain() *domain.InnerThought {
	return &domain.InnerThought{
		ID:               m.ID,
		ThoughtType:      m.ThoughtType,
		Content:          m.Content,
		EmotionalContext: m.EmotionalContext,
		Trigger:          m.Trigger,
		Depth:            m.Depth,
		Salience:         m.Salience,
		CreatedAt:        m.CreatedAt,
	}
}

func NewInnerThoughtModel(t *domain.InnerThought) *InnerThoughtModel {
	return &InnerThoughtModel{
		ID:               t.ID,
		ThoughtType:      t.ThoughtType,
		Content:          t.Content,
		EmotionalContext: t.EmotionalContext,
		Trigger:          t.Trigger,
		Depth:            t.Depth,
		Salience:         t.Salience,
		CreatedAt:        t.CreatedAt,
	}
}

type EpisodicMemoryModel struct {
	bun.BaseModel `bun:"table:episodic_memories,alias:ep"`

	ID                 string    `bun:"id,pk"`
	Narrative          string    `bun:"narrative"`
	EventType          string    `bun:"event_type"`
	EmotionalValence   float64   `bun:"emotional_valence"`
	EmotionalIntensity float64   `bun:"emotional_intensity"`
	Themes             []string  `bun:"themes,array"`
	RelatedSeedIDs     []string  `bun:"related_seed_ids,array"`
	IsCoreMemory       bool      `bun:"is_core_memory"`
	RecallCount        int       `bun:"recall_count"`
	LastRecalledAt     time.Time `bun:"last_recalled_at,nullzero"`
	CreatedAt          time.Time `bun:"created_at"`
}

func (m *EpisodicMemoryModel) ToDomain() *domain.EpisodicMemory {
	e := &domain.EpisodicMemory{
		ID:                 m.ID,
		Narrative:          m.Narrative,
		EventType:          m.EventType,
		EmotionalValence:   m.EmotionalValence,
		EmotionalIntensity: m.EmotionalIntensity,
		Themes:             m.Themes,
		RelatedSeedIDs:     m.RelatedSeedIDs,
		IsCoreMemory:       m.IsCoreMemory,
		RecallCount:        m.RecallCount,
		CreatedAt:          m.CreatedAt,
	}
	if !m.LastRecalledAt.IsZero() {
		t := m.LastRecalledAt
		e.LastRecalledAt = &t
	}
	return e
}

func NewEpisodicMemoryModel(e *domain.EpisodicMemory) *EpisodicMemoryModel {
	m := &EpisodicMemoryModel{
		ID:                 e.ID,
		Narrative:          e.Narrative,
		EventType:          e.EventType,
		EmotionalValence:   e.EmotionalValence,
		EmotionalIntensity: e.EmotionalIntensity,
		Themes:             e.Themes,
		RelatedSeedIDs:     e.RelatedSeedIDs,
		IsCoreMemory:       e.IsCoreMemory,
		RecallCount:        e.RecallCount,
		CreatedAt:          e.CreatedAt,
	}
	if e.LastRecalledAt != nil {
		m.LastRecalledAt = *e.LastRecalledAt
	}
	return m
}

type PredictionModel struct {
	bun.BaseModel `bun:"table:predictions,alias:pd"`

	ID               string    `bun:"id,pk"`
	PredictionType   string    `bun:"prediction_type"`
	SubjectID        string    `bun:"subject_id"`
	PredictedOutcome string    `bun:"predicted_outcome"`
	ActualOutcome    string    `bun:"actual_outcome"`
	Confidence       float64   `bun:"confidence"`
	SurpriseScore    float64   `bun:"surprise_score"`
	Resolved         bool      `bun:"resolved"`
	ResolvedAt       time.Time `bun:"resolved_at,nullzero"`
	CreatedAt        time.Time `bun:"created_at"`
}

func (m *PredictionModel) ToDomain() *domain.Prediction {
	p := &domain.Prediction{
		ID:               m.ID,
		PredictionType:   m.PredictionType,
		SubjectID:        m.SubjectID,
		PredictedOutcome: m.PredictedOutcome,
		ActualOutcome:    m.ActualOutcome,
		Confidence:       m.Confidence,
		SurpriseScore:    m.SurpriseScore,
		Resolved:         m.Resolved,
		CreatedAt:        m.CreatedAt,
	}
	if !m.ResolvedAt.IsZero() {
		t := m.ResolvedAt
		p.ResolvedAt = &t
	}
	return p
}

func NewPredictionModel(p *domain.Prediction) *PredictionModel {
	m := &PredictionModel{
		ID:               p.ID,
		PredictionType:   p.PredictionType,
		SubjectID:        p.SubjectID,
		PredictedOutcome: p.PredictedOutcome,
		ActualOutcome:    p.ActualOutcome,
		Confidence:       p.Confidence,
		SurpriseScore:    p.SurpriseScore,
		Resolved:         p.Resolved,
		CreatedAt:        p.CreatedAt,
	}
	if p.ResolvedAt != nil {
		m.ResolvedAt = *p.ResolvedAt
	}
	return m
}

type SelfModelSnapshotModel struct {
	bun.BaseModel `bun:"table:self_model_snapshots,alias:sm"`

	ID                string             `bun:"id,pk"`
	HarvestRate       float64            `bun:"harvest_rate"`
	CompostRate       float64            `bun:"compost_rate"`
	DreamAccuracy     float64            `bun:"dream_accuracy"`
	DecisionAccuracy  float64            `bun:"decision_accuracy"`
	ThemeAffinities   map[string]float64 `bun:"theme_affinities,type:jsonb"`
	PersonalityTraits map[string]float64 `bun:"personality_traits,type:jsonb"`
	BiasWarnings      []string           `bun:"bias_warnings,array"`
	IdentityNarrative string             `bun:"identity_narrative"`
	CreatedAt         time.Time          `bun:"created_at"`
}

func (m *SelfModelSnapshotModel) ToDomain() *domain.SelfModelSnapshot {
	return &domain.SelfModelSnapshot{
		ID:                m.ID,
		HarvestRate:       m.HarvestRate,
		CompostRate:       m.CompostRate,
		DreamAccuracy:     m.DreamAccuracy,
		DecisionAccuracy:  m.DecisionAccuracy,
		ThemeAffinities:   m.ThemeAffinities,
		PersonalityTraits: m.PersonalityTraits,
		BiasWarnings:      m.BiasWarnings,
		IdentityNarrative: m.IdentityNarrative,
		CreatedAt:         m.CreatedAt,
	}
}

func NewSelfModelSnapshotModel(s *domain.SelfModelSnapshot) *SelfModelSnapshotModel {
	return &SelfModelSnapshotModel{
		ID:                s.ID,
		HarvestRate:       s.HarvestRate,
		CompostRate:       s.CompostRate,
		DreamAccuracy:     s.DreamAccuracy,
		DecisionAccuracy:  s.DecisionAccuracy,
		ThemeAffinities:   s.ThemeAffinities,
		PersonalityTraits: s.PersonalityTraits,
		BiasWarnings:      s.BiasWarnings,
		IdentityNarrative: s.IdentityNarrative,
		CreatedAt:         s.CreatedAt,
	}
}

type HormoneLogModel struct {
	bun.BaseModel `bun:"table:hormone_logs,alias:hl"`

	ID        string         `bun:"id,pk"`
	Name      string         `bun:"name"`
	Payload   map[string]any `bun:"payload,type:jsonb"`
	Emitter   string         `bun:"emitter"`
	Type      string         `bun:"type"`
	Depth     int            `bun:"depth"`
	CreatedAt time.Time      `bun:"created_at"`
}

func (m *HormoneLogModel) ToDomain() *domain.HormoneLog {
	return &domain.HormoneLog{
		ID:        m.ID,
		Name:      m.Name,
		Payload:   m.Payload,
		Emitter:   m.Emitter,
		Type:      m.Type,
		Depth:     m.Depth,
		CreatedAt: m.CreatedAt,
	}
}

func NewHormoneLogModel(h *domain.HormoneLog) *HormoneLogModel {
	return &HormoneLogModel{
		ID:        h.ID,
		Name:      h.Name,
		Payload:   h.Payload,
		Emitter:   h.Emitter,
		Type:      h.Type,
		Depth:     h.Depth,
		CreatedAt: h.CreatedAt,
	}
}
