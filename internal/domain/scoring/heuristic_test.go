package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/scoring"
	"github.com/okian/gitstart/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const goSource = `package main

type Server struct{}

func (s *Server) Handle(x int) int {
	if x > 0 && x < 10 {
		for i := 0; i < x; i++ {
			if i%2 == 0 {
				x++
			}
		}
	}
	return x
}

func main() {}
`

const pythonSource = `class A:
    def f(self, x):
        if x and x > 1:
            return [i for i in range(x)]
        return 0
`

func TestAnalyzeCode(t *testing.T) {
	Convey("Given Go source", t, func() {
		s := scoring.AnalyzeCode([]byte(goSource), "go")

		Convey("Then the syntax tree is measured", func() {
			So(s.Parsed, ShouldBeTrue)
			So(s.Lines, ShouldEqual, 16)
			So(s.Branches, ShouldEqual, 4)
			So(s.Complexity(), ShouldEqual, 5)
			So(s.Functions, ShouldEqual, 2)
			So(s.Classes, ShouldEqual, 1)
			So(s.MaxNesting, ShouldEqual, 3)
			So(s.Score(), ShouldAlmostEqual, 3.95, 1e-9)
		})
	})

	Convey("Given Python source", t, func() {
		s := scoring.AnalyzeCode([]byte(pythonSource), "py")

		Convey("Then comprehension and boolean operators count as branches", func() {
			So(s.Parsed, ShouldBeTrue)
			So(s.Branches, ShouldEqual, 3)
			So(s.Functions, ShouldEqual, 1)
			So(s.Classes, ShouldEqual, 1)
			So(s.MaxNesting, ShouldEqual, 2)
		})
	})

	Convey("Given source in a language without a grammar", t, func() {
		src := "main = do\n  if x then y else z\n  case v of\n    _ -> 1\n"
		s := scoring.AnalyzeCode([]byte(src), "haskell")

		Convey("Then it is measured line by line", func() {
			So(s.Parsed, ShouldBeFalse)
			So(s.Lines, ShouldEqual, 4)
			So(s.Branches, ShouldEqual, 2)
			So(s.MaxNesting, ShouldEqual, 1)
		})
	})

	Convey("Given Go source that does not parse", t, func() {
		s := scoring.AnalyzeCode([]byte("func (\n\tif {{{"), "go")

		Convey("Then the line fallback is used", func() {
			So(s.Parsed, ShouldBeFalse)
			So(s.Functions, ShouldEqual, 1)
			So(s.Branches, ShouldEqual, 1)
		})
	})

	Convey("Given very branchy code", t, func() {
		s := scoring.Structure{Branches: 40, Functions: 10}

		Convey("Then the score is capped", func() {
			So(s.Score(), ShouldEqual, scoring.HeuristicMax)
		})
	})
}

func TestAnalyzeIssue(t *testing.T) {
	Convey("Given a small UI issue", t, func() {
		f := scoring.AnalyzeIssue("Add a button to the homepage that says 'Get Started'. The button should be blue and link to /tutorial.")

		Convey("Then it scores as easy", func() {
			So(f.CodeBlocks, ShouldEqual, 0)
			So(f.HasError, ShouldBeFalse)
			So(f.ComplexityWords, ShouldEqual, 0)
			So(f.Score(), ShouldBeLessThan, 2)
		})
	})

	Convey("Given an architectural issue with a stack trace", t, func() {
		f := scoring.AnalyzeIssue("Refactor the scheduler architecture to optimize throughput.\n\n```go\npanic: nil map\n```\nThe error happens under load.")

		Convey("Then every signal is picked up", func() {
			So(f.CodeBlocks, ShouldEqual, 1)
			So(f.HasError, ShouldBeTrue)
			So(f.ComplexityWords, ShouldEqual, 3)
			So(f.Score(), ShouldBeGreaterThan, 7)
		})
	})
}

func TestHeuristicScorer(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	h := scoring.NewHeuristicScorer(scoring.WithHeuristicClock(func() time.Time { return fixed }))

	Convey("Given the heuristic scorer", t, func() {
		So(h.Name(), ShouldEqual, scoring.HeuristicName)

		Convey("When scoring parsed code", func() {
			r, err := h.Score(context.Background(), scoring.Input{Kind: model.KindCode, Language: "go", Content: []byte(goSource)})

			Convey("Then a numeric result with high confidence is returned", func() {
				So(err, ShouldBeNil)
				So(r.Kind, ShouldEqual, model.ValueNumeric)
				So(r.Max, ShouldEqual, 10.0)
				So(r.Value, ShouldEqual, 3.95)
				So(r.Confidence, ShouldEqual, 0.9)
				So(r.ComputedAt, ShouldEqual, fixed)
				So(r.Signals["functions"], ShouldEqual, 2.0)
			})
		})

		Convey("When scoring code without a grammar", func() {
			r, err := h.Score(context.Background(), scoring.Input{Kind: model.KindCode, Language: "", Content: []byte("x = 1\n")})
			So(err, ShouldBeNil)
			So(r.Confidence, ShouldEqual, 0.6)
		})

		Convey("When scoring an issue", func() {
			r, err := h.Score(context.Background(), scoring.Input{Kind: model.KindIssue, Content: []byte("Fix typo in README")})
			So(err, ShouldBeNil)
			So(r.Confidence, ShouldEqual, 0.5)
		})

		Convey("When the input is empty", func() {
			_, err := h.Score(context.Background(), scoring.Input{Kind: model.KindCode, Content: []byte("  \n")})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the context is already done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := h.Score(ctx, scoring.Input{Kind: model.KindCode, Content: []byte(goSource)})
			So(errors.Is(err, model.ErrAdapterTimeout), ShouldBeTrue)
		})
	})
}
