package normalize_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func numeric(scorer string, v, max, conf float64) model.ScoreResult {
	return model.ScoreResult{Scorer: scorer, Kind: model.ValueNumeric, Value: v, Max: max, Confidence: conf, ComputedAt: time.Unix(0, 0)}
}

func label(scorer, l string, conf float64) model.ScoreResult {
	return model.ScoreResult{Scorer: scorer, Kind: model.ValueCategorical, Label: l, Confidence: conf, ComputedAt: time.Unix(0, 0)}
}

func TestNormalize(t *testing.T) {
	Convey("Given a heuristic 6/10 at 0.9 and a model label medium at 0.6", t, func() {
		results := []model.ScoreResult{
			numeric("heuristic", 6, 10, 0.9),
			label("model", "medium", 0.6),
		}

		Convey("When normalizing", func() {
			ns, err := normalize.Normalize(results, normalize.Options{Expected: 2, LowConfidenceThreshold: 0.5})

			Convey("Then the confidence-weighted mean is (0.6*0.9 + 0.5*0.6)/1.5", func() {
				So(err, ShouldBeNil)
				So(ns.Difficulty, ShouldAlmostEqual, 0.56, 1e-9)
				So(ns.Confidence, ShouldAlmostEqual, 0.75, 1e-9)
				So(ns.LowConfidence, ShouldBeFalse)
				So(ns.Scorers, ShouldEqual, 2)
			})
		})
	})

	Convey("Given results supplied in different orders", t, func() {
		base := []model.ScoreResult{
			numeric("heuristic", 3.3, 10, 0.7),
			label("model", "hard", 0.35),
			numeric("model-b", 41, 100, 0.2),
			label("model-c", "beginner", 0.9),
		}

		Convey("Then every permutation yields the identical score", func() {
			want, err := normalize.Normalize(base, normalize.DefaultOptions())
			So(err, ShouldBeNil)

			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 25; i++ {
				shuffled := append([]model.ScoreResult(nil), base...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				got, err := normalize.Normalize(shuffled, normalize.DefaultOptions())
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			}
		})
	})

	Convey("Given a zero-confidence scorer", t, func() {
		results := []model.ScoreResult{
			numeric("heuristic", 2, 10, 0.8),
			label("model", "expert", 0),
		}

		Convey("Then it contributes no weight", func() {
			ns, err := normalize.Normalize(results, normalize.Options{Expected: 2, LowConfidenceThreshold: 0.3})
			So(err, ShouldBeNil)
			So(ns.Difficulty, ShouldAlmostEqual, 0.2, 1e-9)
			So(ns.Confidence, ShouldAlmostEqual, 0.4, 1e-9)
			So(ns.LowConfidence, ShouldBeFalse)
		})
	})

	Convey("Given only zero-confidence scorers", t, func() {
		results := []model.ScoreResult{
			numeric("heuristic", 2, 10, 0),
			label("model", "medium", 0),
		}

		Convey("Then the unweighted mean is used and the score is flagged", func() {
			ns, err := normalize.Normalize(results, normalize.DefaultOptions())
			So(err, ShouldBeNil)
			So(ns.Difficulty, ShouldAlmostEqual, 0.35, 1e-9)
			So(ns.Confidence, ShouldEqual, 0.0)
			So(ns.LowConfidence, ShouldBeTrue)
		})
	})

	Convey("Given a missing scorer", t, func() {
		results := []model.ScoreResult{numeric("heuristic", 6, 10, 0.9)}

		Convey("Then the composite confidence is diluted and flagged", func() {
			ns, err := normalize.Normalize(results, normalize.Options{Expected: 2, LowConfidenceThreshold: 0.5})
			So(err, ShouldBeNil)
			So(ns.Difficulty, ShouldAlmostEqual, 0.6, 1e-9)
			So(ns.Confidence, ShouldAlmostEqual, 0.45, 1e-9)
			So(ns.LowConfidence, ShouldBeTrue)
		})
	})

	Convey("Given nothing usable", t, func() {
		results := []model.ScoreResult{
			label("model", "galaxy-brain", 0.9),
			numeric("heuristic", 4, 0, 0.9),
		}

		Convey("Then ErrNoUsableScores is returned", func() {
			_, err := normalize.Normalize(results, normalize.DefaultOptions())
			So(errors.Is(err, model.ErrNoUsableScores), ShouldBeTrue)
		})
	})
}

func TestValue(t *testing.T) {
	Convey("Given the ordinal label table", t, func() {
		for l, want := range map[string]float64{"trivial": 0, "Easy": 0.25, "medium": 0.5, " hard ": 0.75, "expert": 1, "intermediate": 0.5} {
			v, ok := normalize.LabelValue(l)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, want)
		}
	})

	Convey("Given numeric values outside the scale", t, func() {
		v, ok := normalize.Value(numeric("h", 14, 10, 1))
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 1.0)

		v, ok = normalize.Value(numeric("h", -2, 10, 1))
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 0.0)
	})
}
