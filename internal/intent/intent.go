// Package intent turns raw gardener input into a Seed: it distills an
// essence sentence, detects themes and emotional tone, scores an ethical
// read, and estimates a starting energy, falling back to lexicon-based
// heuristics whenever the text model is unavailable or too slow.
package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	domainerrors "github.com/w0rd-garden/w0rd/internal/domain/errors"
	"github.com/w0rd-garden/w0rd/internal/ethics"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

var tokenPattern = regexp.MustCompile(`[a-z']+`)

var PositiveWords = []string{
	"love", "joy", "happy", "peace", "kind", "beautiful", "grow", "create", "inspire",
	"heal", "hope", "dream", "light", "warm", "gentle", "bloom", "flourish", "thrive",
	"abundance", "harmony", "grateful", "wonder", "connect", "share", "give", "nurture",
	"celebrate", "delight", "radiant",
}

var NegativeWords = []string{
	"hate", "sad", "fear", "anger", "pain", "destroy", "hurt", "broken", "lost",
	"alone", "grief", "dark", "cold", "cruel", "wither", "decay", "despair",
	"abandon", "betray", "shame", "regret",
}

var HighArousalWords = []string{
	"exciting", "urgent", "explosive", "intense", "rush", "thrilling", "electric",
	"wild", "fierce", "passionate", "burning", "racing", "alarm",
}

var LowArousalWords = []string{
	"calm", "quiet", "slow", "gentle", "peaceful", "still", "soft", "tranquil",
	"serene", "restful", "drowsy", "mellow", "hushed",
}

var ThemeLexicon = map[string][]string{
	"creativity":  {"create", "art", "imagine", "design", "paint", "write", "compose", "craft", "invent"},
	"connection":  {"connect", "relationship", "friend", "family", "community", "together", "bond", "share", "belong"},
	"health":      {"health", "body", "heal", "rest", "exercise", "sleep", "nourish", "wellness", "recover"},
	"growth":      {"grow", "learn", "improve", "develop", "progress", "evolve", "expand", "mature", "advance"},
	"purpose":     {"purpose", "meaning", "mission", "calling", "why", "values", "direction", "goal", "intention"},
	"abundance":   {"abundance", "wealth", "plenty", "prosper", "thrive", "surplus", "rich", "flourish", "gain"},
	"nature":      {"nature", "garden", "earth", "forest", "river", "mountain", "season", "soil", "seed"},
	"love":        {"love", "heart", "romance", "affection", "care", "devotion", "tender", "passion", "adore"},
	"freedom":     {"freedom", "free", "liberty", "choice", "independence", "release", "open", "unbound"},
	"wisdom":      {"wisdom", "knowledge", "insight", "understand", "learn", "reflect", "truth", "clarity"},
}

// themeOrder fixes the dimension order of the theme-frequency vector
// stored as a Seed's Embedding, since ThemeLexicon's map iteration order
// is not stable. This codebase carries no learned embedding model; the
// vector below is a deterministic stand-in so network.ScanForSymbiosis
// has something real to take a cosine similarity over. See DESIGN.md.
var themeOrder = []string{
	"creativity", "connection", "health", "growth", "purpose",
	"abundance", "nature", "love", "freedom", "wisdom",
}

var EthicalMarkers = map[string][]string{
	"harm":           {"destroy", "kill", "attack", "hurt", "damage", "weapon", "violence"},
	"fairness":       {"unfair", "cheat", "steal", "discriminat", "bias", "exclude"},
	"sustainability": {"waste", "deplete", "exhaust", "pollut", "disposable"},
	"consent":        {"force", "coerce", "manipulat", "trick", "deceiv"},
	"kindness":       {"cruel", "harsh", "punish", "ridicul", "mock", "bully"},
	"truthfulness":   {"lie", "deceiv", "fake", "mislead", "fabricat"},
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func countOverlap(tokens []string, vocab []string) int {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	count := 0
	for _, w := range vocab {
		if set[w] {
			count++
		}
	}
	return count
}

func extractEssence(text string) string {
	sentences := regexp.MustCompile(`[.!?]+`).Split(text, -1)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) > 5 {
			return s
		}
	}
	if len(text) > 200 {
		return text[:200]
	}
	return text
}

func detectThemes(tokens []string, pheromoneBias map[string]float64) []string {
	type scored struct {
		theme string
		score float64
	}
	var scores []scored
	for theme, vocab := range ThemeLexicon {
		score := float64(countOverlap(tokens, vocab))
		if score == 0 {
			continue
		}
		score += pheromoneBias[theme] * 2
		scores = append(scores, scored{theme, score})
	}
	if len(scores) == 0 {
		return []string{"general"}
	}
	for i := 0; i < len(scores); i++ {
		for j := i + 1; j < len(scores); j++ {
			if scores[j].score > scores[i].score {
				scores[i], scores[j] = scores[j], scores[i]
			}
		}
	}
	limit := 5
	if limit > len(scores) {
		limit = len(scores)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = scores[i].theme
	}
	return out
}

func detectTone(tokens []string) (valence, arousal float64) {
	pos := countOverlap(tokens, PositiveWords)
	neg := countOverlap(tokens, NegativeWords)
	highA := countOverlap(tokens, HighArousalWords)
	lowA := countOverlap(tokens, LowArousalWords)

	denomPN := pos + neg
	if denomPN == 0 {
		denomPN = 1
	}
	valence = float64(pos-neg) / float64(denomPN)

	denomA := highA + lowA
	if denomA == 0 {
		denomA = 1
	}
	arousal = 0.5 + 0.5*float64(highA-lowA)/float64(denomA)
	return valence, arousal
}

func estimateEnergy(wordCount, themeCount int) float64 {
	e := float64(wordCount)*0.5 + float64(themeCount)*2
	if e > 50.0 {
		e = 50.0
	}
	if e < 5.0 {
		e = 5.0
	}
	return e
}

// themeVector builds a fixed-dimension bag-of-themes vector, one
// component per entry in themeOrder, normalized by that theme's
// vocabulary size so no single lexicon's length dominates the others.
func themeVector(tokens []string) []float64 {
	vec := make([]float64, len(themeOrder))
	for i, theme := range themeOrder {
		vocab := ThemeLexicon[theme]
		if len(vocab) == 0 {
			continue
		}
		vec[i] = float64(countOverlap(tokens, vocab)) / float64(len(vocab))
	}
	return vec
}

func ethicalTags(tokens []string) []string {
	var tags []string
	for dim, vocab := range EthicalMarkers {
		if countOverlap(tokens, vocab) > 0 {
			tags = append(tags, dim)
		}
	}
	return tags
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SeedListener is the intake organ: it hears raw input and plants a Seed.
type SeedListener struct {
	bus     *hormonebus.Bus
	store   storage.Store
	model   textmodel.TextModel
	wisdom  *ethics.ImmuneWisdom
	logger  *slog.Logger
}

func New(bus *hormonebus.Bus, store storage.Store, model textmodel.TextModel, wisdom *ethics.ImmuneWisdom, logger *slog.Logger) *SeedListener {
	return &SeedListener{bus: bus, store: store, model: model, wisdom: wisdom, logger: logger.With("organ", "intent")}
}

// Listen parses content into a Seed. Only the essence is asked of the
// text model, falling back to the lexicon heuristic when the model
// returns nothing; themes, tone and ethical tags always come from the
// lexicon heuristics above.
func (l *SeedListener) Listen(ctx context.Context, content string, pheromoneBias map[string]float64) (*domain.Seed, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domainerrors.NewValidationError("content", "seed content must not be empty")
	}

	tokens := tokenize(content)
	essence := l.llmExtractEssence(ctx, content)
	if essence == "" {
		essence = extractEssence(content)
	}

	themes := detectThemes(tokens, pheromoneBias)
	valence, arousal := detectTone(tokens)
	resonance := round3(abs(valence) * arousal)
	tags := ethicalTags(tokens)

	score := l.wisdom.Score(ctx, content)
	ethicalScore := score.Aggregate
	if containsString(tags, "harm") {
		ethicalScore = minFloat(ethicalScore, 0.5)
	}

	seed, err := domain.NewSeed(uuid.New().String()[:16], content, essence, themes, valence, arousal, resonance, ethicalScore, tags)
	if err != nil {
		return nil, err
	}
	seed.Energy = estimateEnergy(len(tokens), len(themes))
	seed.Embedding = themeVector(tokens)

	if err := l.store.SaveSeed(ctx, seed); err != nil {
		return nil, err
	}

	l.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "seed_planted", map[string]any{
		"seed_id": seed.ID,
		"themes":  seed.Themes,
	}, "intent", domain.HormoneInstant))

	return seed, nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func (l *SeedListener) llmExtractEssence(ctx context.Context, content string) string {
	if l.model == nil {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prompt := "Extract the single essential sentence capturing the core intention of this text, in the author's own voice:\n\n" + content
	out, err := l.model.Complete(callCtx, textmodel.Request{
		Organ:       "intent",
		Phase:       "extract_essence",
		System:      "You distill raw thoughts into their one-sentence essence. Respond with only that sentence.",
		Prompt:      prompt,
		Temperature: 0.4,
		MaxTokens:   80,
	}, nil)
	if err != nil {
		l.logger.Warn("llm essence extraction failed, falling back to heuristic", "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}
