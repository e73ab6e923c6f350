package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/gitstart/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "v1/101")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again reports it as pending", func() {
				So(d.SeenAndRecord(ctx, "v1/101"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a different scorer version is separate work", func() {
				So(d.SeenAndRecord(ctx, "v2/101"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "v1/101")
			d.Unrecord(ctx, "v1/101")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "v1/101"), ShouldBeFalse)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest key is forgotten and the rest remain", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When a middle key is released before overflow", func() {
			d.Unrecord(ctx, "b")
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then no eviction is needed", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("Then it never evicts", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, n)
			So(d.SeenAndRecord(ctx, "k-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 16
		const keys = 50

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			winner = make(map[string]int)
		)
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < keys; k++ {
					key := fmt.Sprintf("key-%d", k)
					if !d.SeenAndRecord(context.Background(), key) {
						mu.Lock()
						winner[key]++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is newly recorded exactly once", func() {
			So(winner, ShouldHaveLength, keys)
			for k := 0; k < keys; k++ {
				So(winner[fmt.Sprintf("key-%d", k)], ShouldEqual, 1)
			}
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
