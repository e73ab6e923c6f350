package ranking_test

import (
	"math/rand"
	"testing"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func candidate(id, lang string, difficulty, confidence float64, low bool) ranking.Candidate {
	return ranking.Candidate{
		Issue: model.IssueText{ID: id, Title: id, Language: lang},
		Score: model.NormalizedScore{Difficulty: difficulty, Confidence: confidence, LowConfidence: low, Scorers: 2},
	}
}

func ids(items []model.RecommendationItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.IssueID
	}
	return out
}

func TestTargetDifficulty(t *testing.T) {
	Convey("Given a profile with go proficiency 0.2 and one completed issue at 0.2", t, func() {
		p := model.ContributorProfile{
			ID:                    "dev",
			Proficiency:           map[string]float64{"go": 0.2, "rust": 0.6},
			CompletedDifficulties: []float64{0.2},
		}

		Convey("Then the go target is 0.3", func() {
			So(ranking.TargetDifficulty(p, "go", ranking.DefaultStretch), ShouldAlmostEqual, 0.3, 1e-12)
		})

		Convey("Then an unknown language uses the mean proficiency", func() {
			So(ranking.Proficiency(p, "haskell"), ShouldAlmostEqual, 0.4, 1e-12)
		})
	})

	Convey("Given an empty profile", t, func() {
		p := model.ContributorProfile{ID: "new"}

		Convey("Then the target starts from the default proficiency", func() {
			So(ranking.TargetDifficulty(p, "go", 0.1), ShouldAlmostEqual, 0.35, 1e-12)
		})
	})

	Convey("Given an expert profile", t, func() {
		p := model.ContributorProfile{Proficiency: map[string]float64{"go": 1}, CompletedDifficulties: []float64{1}}

		Convey("Then the target is clamped to 1", func() {
			So(ranking.TargetDifficulty(p, "go", 0.1), ShouldEqual, 1.0)
		})
	})
}

func TestRank(t *testing.T) {
	profile := model.ContributorProfile{
		ID:                    "dev",
		Proficiency:           map[string]float64{"go": 0.2},
		CompletedDifficulties: []float64{0.2},
	}

	Convey("Given A and B at the target difficulty where B is low-confidence", t, func() {
		cands := []ranking.Candidate{
			candidate("B", "go", 0.3, 0.9, true),
			candidate("A", "go", 0.3, 0.4, false),
		}

		Convey("When ranking", func() {
			items := ranking.Rank(profile, cands, ranking.DefaultOptions())

			Convey("Then both have fitness 1 and A ranks first", func() {
				So(ids(items), ShouldResemble, []string{"A", "B"})
				So(items[0].Fitness, ShouldAlmostEqual, 1.0, 1e-12)
				So(items[1].Fitness, ShouldAlmostEqual, 1.0, 1e-12)
				So(items[0].Rank, ShouldEqual, 1.0)
				So(items[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the tier width is zero", func() {
			opts := ranking.DefaultOptions()
			opts.TierWidth = 0
			items := ranking.Rank(profile, cands, opts)

			Convey("Then the non-flagged candidate still wins the tie", func() {
				So(ids(items), ShouldResemble, []string{"A", "B"})
			})
		})
	})

	Convey("Given a low-confidence candidate clearly fitter than a confident one", t, func() {
		cands := []ranking.Candidate{
			candidate("far", "go", 0.6, 0.9, false),
			candidate("close", "go", 0.3, 0.2, true),
		}

		Convey("Then demotion by one tier does not bury it", func() {
			So(ids(ranking.Rank(profile, cands, ranking.DefaultOptions())), ShouldResemble, []string{"close", "far"})
		})
	})

	Convey("Given a low-confidence candidate inside one tier of a confident one", t, func() {
		cands := []ranking.Candidate{
			candidate("flagged", "go", 0.37, 0.9, true),
			candidate("confident", "go", 0.4, 0.5, false),
		}

		Convey("Then the confident candidate ranks first", func() {
			items := ranking.Rank(profile, cands, ranking.DefaultOptions())
			So(ids(items), ShouldResemble, []string{"confident", "flagged"})
			So(items[1].Fitness, ShouldBeGreaterThan, items[0].Fitness)
		})
	})

	Convey("Given a low-confidence candidate exactly one tier fitter", t, func() {
		cands := []ranking.Candidate{
			candidate("flagged", "go", 0.35, 0.9, true),
			candidate("confident", "go", 0.4, 0.5, false),
		}

		Convey("Then the tie on the demoted key goes to the confident candidate", func() {
			So(ids(ranking.Rank(profile, cands, ranking.DefaultOptions())), ShouldResemble, []string{"confident", "flagged"})
		})
	})

	Convey("Given a tier width of one", t, func() {
		cands := []ranking.Candidate{
			candidate("flagged", "go", 0.3, 0.9, true),
			candidate("confident", "go", 0.9, 0.5, false),
		}
		opts := ranking.DefaultOptions()
		opts.TierWidth = 1

		Convey("Then every flagged candidate ranks after every confident one", func() {
			So(ids(ranking.Rank(profile, cands, opts)), ShouldResemble, []string{"confident", "flagged"})
		})
	})

	Convey("Given candidates tied on fitness", t, func() {
		cands := []ranking.Candidate{
			candidate("c", "go", 0.2, 0.5, false),
			candidate("b", "go", 0.4, 0.5, false),
			candidate("a", "go", 0.4, 0.5, false),
			candidate("d", "go", 0.2, 0.8, false),
		}

		Convey("Then confidence breaks the tie and then the ID", func() {
			So(ids(ranking.Rank(profile, cands, ranking.DefaultOptions())), ShouldResemble, []string{"d", "a", "b", "c"})
		})
	})

	Convey("Given a shuffled candidate list", t, func() {
		base := []ranking.Candidate{
			candidate("i1", "go", 0.1, 0.7, false),
			candidate("i2", "go", 0.3, 0.2, true),
			candidate("i3", "rust", 0.5, 0.9, false),
			candidate("i4", "", 0.3, 0.9, false),
			candidate("i5", "go", 0.3, 0.9, false),
			candidate("i6", "go", 0.5, 0.6, true),
		}
		want := ids(ranking.Rank(profile, base, ranking.DefaultOptions()))

		Convey("Then the order is the same for every permutation", func() {
			rng := rand.New(rand.NewSource(11))
			for i := 0; i < 25; i++ {
				shuffled := append([]ranking.Candidate(nil), base...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				So(ids(ranking.Rank(profile, shuffled, ranking.DefaultOptions())), ShouldResemble, want)
			}
		})
	})

	Convey("Given duplicates and a limit", t, func() {
		cands := []ranking.Candidate{
			candidate("x", "go", 0.3, 0.9, false),
			candidate("x", "go", 0.9, 0.1, true),
			candidate("y", "go", 0.5, 0.9, false),
			candidate("z", "go", 0.9, 0.9, false),
		}
		opts := ranking.DefaultOptions()
		opts.Limit = 2
		items := ranking.Rank(profile, cands, opts)

		Convey("Then the first occurrence is kept and the list is truncated", func() {
			So(ids(items), ShouldResemble, []string{"x", "y"})
			So(items[0].Difficulty, ShouldEqual, 0.3)
		})
	})
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		name  string
		issue model.IssueText
		want  string
	}{
		{"explicit", model.IssueText{Language: "Golang", Labels: []string{"lang:python"}}, "go"},
		{"prefixed label", model.IssueText{Labels: []string{"bug", "lang:TS"}}, "typescript"},
		{"bare label", model.IssueText{Labels: []string{"good first issue", "rust"}}, "rust"},
		{"fence", model.IssueText{Body: "Crash:\n\n```python\nraise ValueError()\n```\n"}, "python"},
		{"plain fence", model.IssueText{Body: "```\nlog\n```\n```go\nx\n```"}, ""},
		{"nothing", model.IssueText{Body: "it is slow"}, ""},
	}

	Convey("Given issues with different language hints", t, func() {
		for _, tc := range cases {
			Convey(tc.name, func() {
				So(ranking.DetectLanguage(tc.issue), ShouldEqual, tc.want)
			})
		}
	})
}
