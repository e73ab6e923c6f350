package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/gitstart/internal/adapters/inference"
	. "github.com/smartystreets/goconvey/convey"
)

func server(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

func TestHTTPClientClassify(t *testing.T) {
	Convey("Given an inference service returning a numeric score", t, func() {
		var got map[string]any
		var auth string
		srv := server(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			if r.URL.Path != "/v1/classify" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"score": 7, "max": 10, "confidence": 0.8})
		})
		defer srv.Close()

		c := inference.NewHTTPClient(srv.URL+"/", "test-key")
		resp, err := c.Classify(context.Background(), inference.Request{
			Kind:     "code",
			Language: "go",
			Content:  "package main",
			Deadline: time.Now().Add(time.Minute),
		})

		Convey("Then the response and request are well formed", func() {
			So(err, ShouldBeNil)
			So(resp.Numeric(), ShouldBeTrue)
			So(resp.Score, ShouldEqual, 7)
			So(resp.Confidence, ShouldEqual, 0.8)
			So(auth, ShouldEqual, "Bearer test-key")
			So(got["kind"], ShouldEqual, "code")
			So(got["language"], ShouldEqual, "go")
			So(got["deadline_ms"], ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given an inference service returning a label", t, func() {
		srv := server(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"label":"hard","confidence":0.55,"suggestions":["add a test first"]}`))
		})
		defer srv.Close()

		resp, err := inference.NewHTTPClient(srv.URL, "").Classify(context.Background(), inference.Request{Kind: "issue", Content: "x"})

		Convey("Then the label is returned", func() {
			So(err, ShouldBeNil)
			So(resp.Numeric(), ShouldBeFalse)
			So(resp.Label, ShouldEqual, "hard")
			So(resp.Suggestions, ShouldResemble, []string{"add a test first"})
		})
	})
}

func TestHTTPClientFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `slow down`, inference.ErrRateLimited},
		{"malformed", http.StatusUnprocessableEntity, `bad content`, inference.ErrMalformedInput},
		{"bad request", http.StatusBadRequest, `bad`, inference.ErrMalformedInput},
		{"unavailable", http.StatusServiceUnavailable, `down`, inference.ErrUnavailable},
		{"gateway timeout", http.StatusGatewayTimeout, ``, inference.ErrTimeout},
		{"garbage", http.StatusOK, `{not json`, inference.ErrBadResponse},
		{"confidence out of range", http.StatusOK, `{"label":"easy","confidence":1.5}`, inference.ErrBadResponse},
		{"empty answer", http.StatusOK, `{"confidence":0.5}`, inference.ErrBadResponse},
	}

	Convey("Given failing inference responses", t, func() {
		for _, tc := range cases {
			Convey(tc.name, func() {
				srv := server(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(tc.body))
				})
				defer srv.Close()

				_, err := inference.NewHTTPClient(srv.URL, "").Classify(context.Background(), inference.Request{Kind: "code", Content: "x"})
				So(errors.Is(err, tc.want), ShouldBeTrue)
			})
		}
	})

	Convey("Given a slow inference service", t, func() {
		release := make(chan struct{})
		srv := server(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := inference.NewHTTPClient(srv.URL, "").Classify(ctx, inference.Request{Kind: "code", Content: "x"})

		Convey("Then the call fails with ErrTimeout", func() {
			So(errors.Is(err, inference.ErrTimeout), ShouldBeTrue)
		})
	})

	Convey("Given an unreachable service", t, func() {
		srv := server(func(http.ResponseWriter, *http.Request) {})
		url := srv.URL
		srv.Close()

		_, err := inference.NewHTTPClient(url, "").Classify(context.Background(), inference.Request{Kind: "code", Content: "x"})

		Convey("Then the call fails with ErrUnavailable", func() {
			So(errors.Is(err, inference.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given an exhausted rate limit", t, func() {
		srv := server(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"label":"easy","confidence":0.5}`))
		})
		defer srv.Close()

		c := inference.NewHTTPClient(srv.URL, "", inference.WithRateLimit(0.01, 1))
		_, err := c.Classify(context.Background(), inference.Request{Kind: "code", Content: "x"})
		So(err, ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = c.Classify(ctx, inference.Request{Kind: "code", Content: "x"})

		Convey("Then the next call is rejected as rate limited", func() {
			So(errors.Is(err, inference.ErrRateLimited), ShouldBeTrue)
		})
	})

	Convey("Given a deadline already in the past", t, func() {
		_, err := inference.NewHTTPClient("http://127.0.0.1:1", "").Classify(context.Background(), inference.Request{
			Kind: "code", Content: "x", Deadline: time.Now().Add(-time.Second),
		})
		So(errors.Is(err, inference.ErrTimeout), ShouldBeTrue)
	})
}
