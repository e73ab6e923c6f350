package scoring

import (
	"bytes"
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/okian/gitstart/internal/domain/model"
)

// Heuristic scorer identity and scale.
const (
	HeuristicName    = "heuristic"
	HeuristicVersion = "heuristic-v1"
	HeuristicMax     = 10.0

	parsedConfidence   = 0.9
	fallbackConfidence = 0.6
	issueConfidence    = 0.5
	tabWidth           = 4
)

var (
	branchPattern   = regexp.MustCompile(`\b(if|elif|for|foreach|while|case|catch|except|when)\b|&&|\|\|`)
	functionPattern = regexp.MustCompile(`\b(func|def|function|fn|fun|sub)\b`)
	classPattern    = regexp.MustCompile(`\b(class|struct|interface|trait|enum)\b`)

	errorWords      = []string{"error", "bug", "exception", "panic", "crash", "stack trace"}
	complexityWords = []string{"implement", "refactor", "optimize", "architecture", "migrate", "concurren", "redesign"}
)

// Structure is what the heuristic measures in code.
type Structure struct {
	Lines      int
	Functions  int
	Classes    int
	Branches   int
	MaxNesting int
	Parsed     bool
}

// Complexity is the cyclomatic complexity estimate.
func (s Structure) Complexity() int { return 1 + s.Branches }

// Score maps the structure onto [0,10].
func (s Structure) Score() float64 {
	raw := float64(s.Complexity())*0.5 +
		float64(s.Classes)*0.3 +
		float64(s.Functions)*0.2 +
		float64(s.MaxNesting)*0.25
	return math.Min(HeuristicMax, raw)
}

// HeuristicOption applies a configuration option to the HeuristicScorer.
type HeuristicOption func(*HeuristicScorer)

// WithHeuristicClock replaces time.Now for result timestamps.
func WithHeuristicClock(now func() time.Time) HeuristicOption {
	return func(h *HeuristicScorer) {
		if now != nil {
			h.now = now
		}
	}
}

// HeuristicScorer scores code from its syntax tree and issues from text
// features. It never calls out of process.
type HeuristicScorer struct {
	now func() time.Time
}

// NewHeuristicScorer creates the local scorer.
func NewHeuristicScorer(opts ...HeuristicOption) *HeuristicScorer {
	h := &HeuristicScorer{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements Scorer.
func (h *HeuristicScorer) Name() string { return HeuristicName }

// Score implements Scorer.
func (h *HeuristicScorer) Score(ctx context.Context, in Input) (model.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreResult{}, model.WrapKind("scoring.heuristic", model.ErrAdapterTimeout, err)
	}
	if len(bytes.TrimSpace(in.Content)) == 0 {
		return model.ScoreResult{}, model.NewKind("scoring.heuristic", model.ErrInvalidInput)
	}

	switch in.Kind {
	case model.KindCode:
		s := AnalyzeCode(in.Content, in.Language)
		if err := ctx.Err(); err != nil {
			return model.ScoreResult{}, model.WrapKind("scoring.heuristic", model.ErrAdapterTimeout, err)
		}
		conf := fallbackConfidence
		if s.Parsed {
			conf = parsedConfidence
		}
		return h.result(s.Score(), conf, map[string]float64{
			"lines":       float64(s.Lines),
			"functions":   float64(s.Functions),
			"classes":     float64(s.Classes),
			"complexity":  float64(s.Complexity()),
			"max_nesting": float64(s.MaxNesting),
		}), nil
	case model.KindIssue:
		f := AnalyzeIssue(string(in.Content))
		return h.result(f.Score(), issueConfidence, map[string]float64{
			"length":           float64(f.Length),
			"words":            float64(f.Words),
			"code_blocks":      float64(f.CodeBlocks),
			"error_words":      boolFloat(f.HasError),
			"complexity_words": float64(f.ComplexityWords),
		}), nil
	default:
		return model.ScoreResult{}, model.NewKind("scoring.heuristic", model.ErrInvalidInput)
	}
}

func (h *HeuristicScorer) result(score, confidence float64, signals map[string]float64) model.ScoreResult {
	return model.ScoreResult{
		Scorer:        HeuristicName,
		ScorerVersion: HeuristicVersion,
		Kind:          model.ValueNumeric,
		Value:         math.Round(score*100) / 100,
		Max:           HeuristicMax,
		Confidence:    confidence,
		ComputedAt:    h.now().UTC(),
		Signals:       signals,
	}
}

// AnalyzeCode measures code structure. Languages with a grammar are parsed;
// anything else, or code that does not parse cleanly, is measured line by line.
func AnalyzeCode(code []byte, language string) Structure {
	if g, ok := grammarFor(strings.ToLower(language)); ok {
		if s, ok := parseStructure(code, g); ok {
			return s
		}
	}
	return lineStructure(code)
}

func parseStructure(code []byte, g grammar) (Structure, bool) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(g.language())); err != nil {
		return Structure{}, false
	}

	tree := parser.Parse(code, nil)
	if tree == nil {
		return Structure{}, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return Structure{}, false
	}

	s := Structure{Lines: countLines(code), Parsed: true}
	cursor := root.Walk()
	defer cursor.Close()
	walk(cursor, g, 0, &s)
	return s, true
}

// walk visits the subtree under the cursor, leaving the cursor where it started.
func walk(cursor *tree_sitter.TreeCursor, g grammar, depth int, s *Structure) {
	node := cursor.Node()
	kind := node.Kind()

	switch {
	case g.branches.has(kind):
		s.Branches++
	case kind == "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			if k := op.Kind(); k == "&&" || k == "||" {
				s.Branches++
			}
		}
	}
	if g.functions.has(kind) {
		s.Functions++
	}
	if g.classes.has(kind) {
		s.Classes++
	}
	if g.nesting.has(kind) {
		depth++
		if depth > s.MaxNesting {
			s.MaxNesting = depth
		}
	}

	if !cursor.GotoFirstChild() {
		return
	}
	for {
		walk(cursor, g, depth, s)
		if !cursor.GotoNextSibling() {
			break
		}
	}
	cursor.GotoParent()
}

func lineStructure(code []byte) Structure {
	var s Structure
	for _, line := range strings.Split(string(code), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		s.Lines++
		s.Branches += len(branchPattern.FindAllStringIndex(trimmed, -1))
		s.Functions += len(functionPattern.FindAllStringIndex(trimmed, -1))
		s.Classes += len(classPattern.FindAllStringIndex(trimmed, -1))
		if level := indentWidth(line) / tabWidth; level > s.MaxNesting {
			s.MaxNesting = level
		}
	}
	return s
}

func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += tabWidth
		default:
			return w
		}
	}
	return w
}

func countLines(code []byte) int {
	trimmed := bytes.TrimRight(code, "\n")
	if len(trimmed) == 0 {
		return 0
	}
	return bytes.Count(trimmed, []byte("\n")) + 1
}

// IssueFeatures are the text signals of an issue.
type IssueFeatures struct {
	Length          int
	Words           int
	CodeBlocks      int
	HasError        bool
	ComplexityWords int
}

// AnalyzeIssue extracts text features from an issue.
func AnalyzeIssue(text string) IssueFeatures {
	lower := strings.ToLower(text)
	f := IssueFeatures{
		Length:     len(text),
		Words:      len(strings.Fields(text)),
		CodeBlocks: strings.Count(text, "```") / 2,
	}
	for _, w := range errorWords {
		if strings.Contains(lower, w) {
			f.HasError = true
			break
		}
	}
	for _, w := range complexityWords {
		if strings.Contains(lower, w) {
			f.ComplexityWords++
		}
	}
	return f
}

// Score maps issue features onto [0,10].
func (f IssueFeatures) Score() float64 {
	score := 1.0 + math.Min(3, float64(f.Words)/100)
	if f.CodeBlocks > 0 {
		score += 1.5
	}
	if f.HasError {
		score += 0.5
	}
	score += 1.5 * float64(f.ComplexityWords)
	return math.Max(0, math.Min(HeuristicMax, score))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
