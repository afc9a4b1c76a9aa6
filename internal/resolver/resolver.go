package resolver

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"autosense/domain/analysis"
	"autosense/domain/dataset"
	"autosense/domain/intent"
	"autosense/internal"
	"autosense/ports"
)

// DefaultSemanticThreshold is the minimum cosine similarity for a semantic match
const DefaultSemanticThreshold = 0.3

// Lexical scoring weights
const (
	tokenOverlapWeight   = 3
	tokenDuplicateWeight = 2
	keywordBonus         = 5
	statusPenalty        = 2
	minTokenChars        = 3
)

// measureKeywordBuckets reward measure candidates whose names read like a
// quantity. Buckets are scanned in order and a keyword in several buckets
// scores once per bucket.
var measureKeywordBuckets = [][]string{
	{"budget", "cost", "price", "amount", "fee", "expense", "value"},
	{"revenue", "income", "sales", "earnings", "profit", "money", "amount"},
	{"count", "number", "total", "quantity", "num", "amount", "freq"},
	{"rating", "rate", "score", "rank", "grade"},
	{"date", "time", "month", "year", "quarter", "week", "day", "period"},
	{"type", "genre", "category", "status", "name", "title", "label"},
}

// Resolver binds intent hints to concrete columns
type Resolver struct {
	embedder  ports.EmbeddingProvider
	threshold float64
	logger    *internal.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithEmbedder enables the semantic tier
func WithEmbedder(e ports.EmbeddingProvider) Option {
	return func(r *Resolver) { r.embedder = e }
}

// WithSemanticThreshold overrides the cosine cutoff
func WithSemanticThreshold(t float64) Option {
	return func(r *Resolver) { r.threshold = t }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a resolver. Without an embedder the semantic tier is skipped.
func New(opts ...Option) *Resolver {
	r := &Resolver{threshold: DefaultSemanticThreshold, logger: internal.DefaultLogger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve binds measure, category and datetime independently. It never
// fails; a role with no candidate columns stays empty.
func (r *Resolver) Resolve(in intent.Intent, profiles dataset.Profiles) analysis.FieldBinding {
	query := strings.ToLower(strings.TrimSpace(in.Query))

	binding := analysis.FieldBinding{
		Measure:   r.ResolveMeasure(in.MeasureFieldHint, query, profiles),
		Category:  r.resolveRole(profiles.Names(dataset.RoleCategorical), query),
		Datetime:  r.resolveRole(profiles.Names(dataset.RoleDatetime), query),
		Mentioned: mentionedColumns(query, in.TargetColumnHints, profiles),
	}
	binding.Comparison = r.resolveComparison(in.ComparisonFieldHints, profiles)
	r.logger.Debug("[Resolver] measure=%q category=%q datetime=%q comparison=%v mentioned=%v",
		binding.Measure, binding.Category, binding.Datetime, binding.Comparison, binding.Mentioned)
	return binding
}

// ResolveMeasure picks a numeric column. The explicit measure hint is tried
// as a direct match first; the query then drives the three-tier preference
// over candidates sorted by descending variance.
func (r *Resolver) ResolveMeasure(hint, query string, profiles dataset.Profiles) string {
	numeric := profiles.ByRole(dataset.RoleNumeric)
	if len(numeric) == 0 {
		return ""
	}

	names := make([]string, len(numeric))
	for i, p := range numeric {
		names[i] = p.Name
	}
	if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" {
		if col := directMatch(names, hint); col != "" {
			return col
		}
	}

	sorted := make(dataset.Profiles, len(numeric))
	copy(sorted, numeric)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Variance > sorted[j].Variance })
	for i, p := range sorted {
		names[i] = p.Name
	}
	return r.Prefer(names, query, true)
}

// ResolveNumeric binds a free-text phrase, such as one side of a comparison,
// to a numeric column.
func (r *Resolver) ResolveNumeric(phrase string, profiles dataset.Profiles) string {
	return r.Prefer(profiles.Names(dataset.RoleNumeric), strings.ToLower(phrase), true)
}

// resolveComparison binds the first phrase pair whose sides land on two
// different numeric columns.
func (r *Resolver) resolveComparison(pairs []intent.ComparisonPair, profiles dataset.Profiles) []string {
	for _, pair := range pairs {
		left := r.ResolveNumeric(pair.Left, profiles)
		right := r.ResolveNumeric(pair.Right, profiles)
		if left != "" && right != "" && left != right {
			return []string{left, right}
		}
	}
	return nil
}

func (r *Resolver) resolveRole(candidates []string, query string) string {
	if len(candidates) == 0 {
		return ""
	}
	return r.Prefer(candidates, query, false)
}

// Prefer applies direct, semantic and lexical matching in that order. It
// returns "" only when candidates is empty.
func (r *Resolver) Prefer(candidates []string, hint string, preferMeasure bool) string {
	if len(candidates) == 0 {
		return ""
	}
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return candidates[0]
	}

	if col := directMatch(candidates, hint); col != "" {
		return col
	}
	if col := r.semanticMatch(candidates, hint); col != "" {
		return col
	}
	return lexicalMatch(candidates, hint, preferMeasure)
}

func directMatch(candidates []string, hint string) string {
	for _, col := range candidates {
		name := strings.ToLower(col)
		if name == hint || strings.Contains(hint, name) || strings.Contains(name, hint) {
			return col
		}
	}
	return ""
}

// semanticMatch returns "" when no embedder is configured, the lookup fails
// or no candidate clears the threshold.
func (r *Resolver) semanticMatch(candidates []string, hint string) string {
	if r.embedder == nil {
		return ""
	}
	query, err := r.embedder.Embed(hint)
	if err != nil {
		r.logger.Debug("[Resolver] embedding unavailable, falling back to lexical scoring: %v", err)
		return ""
	}

	best, bestSim := "", r.threshold
	for _, col := range candidates {
		vec, err := r.embedder.Embed(strings.ToLower(col))
		if err != nil {
			r.logger.Debug("[Resolver] embedding failed for column %q: %v", col, err)
			return ""
		}
		if sim := Cosine(query, vec); sim > bestSim {
			best, bestSim = col, sim
		}
	}
	return best
}

func lexicalMatch(candidates []string, hint string, preferMeasure bool) string {
	tokens := strings.Fields(hint)
	mentionsStatus := strings.Contains(hint, "status") || strings.Contains(hint, "state")

	best, bestScore := candidates[0], 0
	for _, col := range candidates {
		name := strings.ToLower(col)
		score := 0
		for _, tok := range tokens {
			if len(tok) >= minTokenChars && strings.Contains(name, tok) {
				score += tokenOverlapWeight + tokenDuplicateWeight
			}
		}
		if preferMeasure {
			for _, bucket := range measureKeywordBuckets {
				for _, kw := range bucket {
					if strings.Contains(name, kw) {
						score += keywordBonus
					}
				}
			}
		}
		if strings.Contains(name, "status") && !mentionsStatus {
			score -= statusPenalty
		}
		if score > bestScore {
			best, bestScore = col, score
		}
	}
	return best
}

// Cosine returns the cosine similarity, 0 for mismatched or zero vectors.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// mentionedColumns lists columns whose lowercased name appears in the query
// or equals a target column hint, in schema order.
func mentionedColumns(query string, targets []string, profiles dataset.Profiles) []string {
	var out []string
	for _, p := range profiles {
		name := strings.ToLower(p.Name)
		if query != "" && strings.Contains(query, name) {
			out = append(out, p.Name)
			continue
		}
		for _, t := range targets {
			if strings.EqualFold(t, p.Name) {
				out = append(out, p.Name)
				break
			}
		}
	}
	return out
}
