package scorecache

import (
	"context"
	"testing"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAwait(t *testing.T) {
	_ = logger.Init()

	Convey("Given a flight that finished and a caller context that also ended", t, func() {
		c, err := New(&nopStore{})
		So(err, ShouldBeNil)

		const key = model.Fingerprint("ab12")
		entry := model.CacheEntry{Fingerprint: key, Results: []model.ScoreResult{{Scorer: "heuristic"}}}
		f := &flight{done: make(chan struct{}), entry: entry, waiters: 1, cancel: func() {}}
		close(f.done)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then every wait returns the finished result", func() {
			for i := 0; i < 100; i++ {
				got, stored, err := c.await(ctx, key, f)
				So(err, ShouldBeNil)
				So(stored, ShouldBeFalse)
				So(got, ShouldResemble, entry)
			}
			So(f.waiters, ShouldEqual, 1)
		})
	})
}

type nopStore struct{}

func (nopStore) Load(context.Context, model.Fingerprint) (model.CacheEntry, bool, error) {
	return model.CacheEntry{}, false, nil
}

func (nopStore) Save(context.Context, model.CacheEntry) error { return nil }

func (nopStore) Delete(context.Context, model.Fingerprint) error { return nil }
