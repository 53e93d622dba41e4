package toolhub

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/effective-security/toolhub/pkg/metricskey"
	"github.com/effective-security/toolhub/tools"
	"github.com/effective-security/xlog"
)

// DefaultK is the number of tools described when k is not specified
const DefaultK = 5

// minPoolSize is the minimum of vector candidates requested from the index
const minPoolSize = 20

// vectorRankSentinel is added to the tool count for tools not in the vector pool
const vectorRankSentinel = 1000

var tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

// Scored is a ranked tool with its score components
type Scored struct {
	Name string
	// Score is the lexical score with boosts
	Score int
	// VectorRank is the zero-based position in the vector pool,
	// or the sentinel when the tool was not in the pool
	VectorRank int
}

// QueryTools returns up to k tools most relevant to the query,
// see NormalizeQuery for supported query shapes.
// It returns empty list when no tools are registered.
func (h *Hub) QueryTools(ctx context.Context, query any, k int) []tools.ITool {
	scored := h.QueryScored(ctx, query, k)
	list := make([]tools.ITool, 0, len(scored))
	for _, s := range scored {
		t, _ := h.nameToTool.Get(s.Name)
		list = append(list, t)
	}
	return list
}

// DescribeTools returns the catalog of up to k tools relevant to the query,
// formatted for an agent prompt. k <= 0 uses DefaultK.
func (h *Hub) DescribeTools(ctx context.Context, query any, k int) string {
	if k <= 0 {
		k = DefaultK
	}
	return tools.GetDescriptions(h.QueryTools(ctx, query, k)...)
}

// QueryScored returns ranking of up to k tools with the score components.
func (h *Hub) QueryScored(ctx context.Context, query any, k int) []Scored {
	total := h.nameToTool.Len()
	if total == 0 || k <= 0 {
		return []Scored{}
	}

	started := time.Now()
	defer metricskey.PerfToolQuery.MeasureSince(started, h.name)

	text := NormalizeQuery(query)
	vecRank := h.vectorRanks(ctx, text, min(max(minPoolSize, 3*k), total))

	tokens := tokenize(text)
	sentinel := total + vectorRankSentinel

	scored := make([]Scored, 0, total)
	for pair := h.nameToTool.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		vr, ok := vecRank[name]
		if !ok {
			vr = sentinel
		}
		scored = append(scored, Scored{
			Name:       name,
			Score:      lexicalScore(tokens, name, h.toolText[name]),
			VectorRank: vr,
		})
	}

	slices.SortFunc(scored, func(a, b Scored) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if a.VectorRank != b.VectorRank {
			return a.VectorRank - b.VectorRank
		}
		return strings.Compare(b.Name, a.Name)
	})

	if k < len(scored) {
		scored = scored[:k]
	}

	logger.ContextKV(ctx, xlog.DEBUG, "hub", h.name, "query", text, "k", k, "selected", len(scored))
	return scored
}

// vectorRanks returns the first position of each tool in the vector pool.
// Index failures degrade to empty pool.
func (h *Hub) vectorRanks(ctx context.Context, text string, poolSize int) map[string]int {
	ranks := map[string]int{}
	results, err := h.index.Search(ctx, text, poolSize)
	if err != nil {
		metricskey.StatsToolQueryFallback.IncrCounter(1, h.name)
		logger.ContextKV(ctx, xlog.WARNING, "hub", h.name, "reason", "index_search", "err", err.Error())
		return ranks
	}
	for i, r := range results {
		name := r.Metadata[MetaToolName]
		if name == "" {
			continue
		}
		if _, ok := ranks[name]; !ok {
			ranks[name] = i
		}
	}
	return ranks
}

func tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

var (
	searchTerms = []string{"search", "who", "what"}
	cryptoTerms = []string{"btc", "bitcoin", "eth", "exchange", "exchanges"}
)

func containsAny(tokens []string, terms []string) bool {
	for _, term := range terms {
		if slices.Contains(tokens, term) {
			return true
		}
	}
	return false
}

// lexicalScore returns 2 points per token found in the name,
// 1 point per token found in the index text, plus heuristic boosts
// for generic search tools and crypto tools.
func lexicalScore(tokens []string, name, text string) int {
	nameL := strings.ToLower(name)
	textL := strings.ToLower(text)

	score := 0
	for _, t := range tokens {
		if strings.Contains(nameL, t) {
			score += 2
		}
		if strings.Contains(textL, t) {
			score++
		}
	}

	if containsAny(tokens, searchTerms) &&
		(strings.Contains(name, "__search") || strings.HasSuffix(name, "_search")) {
		score += 3
	}
	if containsAny(tokens, cryptoTerms) &&
		(strings.HasPrefix(name, "ccxt_") || strings.Contains(textL, "crypto")) {
		score += 4
	}
	return score
}
