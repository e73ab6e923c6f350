package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gathered(names ...string) map[string]bool {
	found := make(map[string]bool, len(names))
	families, err := GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		for _, n := range names {
			if f.GetName() == n {
				found[n] = true
			}
		}
	}
	return found
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the default namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "gitstart")
				So(manager.subsystem, ShouldEqual, "pipeline")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When passing empty option values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "gitstart")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording pipeline metrics", func() {
			So(func() {
				RecordAnalyze("code", "computed")
				RecordAnalyze("issue", "cached")
				RecordAnalyzeLatency(12.5)
				RecordPipelinePartial()
				RecordUnscored(2)
				RecordRecommendation("partial")
				RecordRecommendationLatency(40)
				RecordLowConfidenceItems(1)
				RecordWarmRequest()
				RecordWarmDuplicate()
			}, ShouldNotPanic)

			Convey("Then the families should be exported", func() {
				found := gathered(
					"gitstart_pipeline_analyze_total",
					"gitstart_pipeline_partial_responses_total",
					"gitstart_pipeline_recommendations_total",
				)
				So(found["gitstart_pipeline_analyze_total"], ShouldBeTrue)
				So(found["gitstart_pipeline_partial_responses_total"], ShouldBeTrue)
				So(found["gitstart_pipeline_recommendations_total"], ShouldBeTrue)
			})
		})

		Convey("When recording cache metrics", func() {
			So(func() {
				RecordCacheHit()
				RecordCacheMiss()
				RecordCacheJoin()
				UpdateCacheInflight(3)
				RecordCacheWrite(true)
				RecordCacheWrite(false)
				RecordCacheInvalidation()
				RecordCacheStoreError("redis", "load")
			}, ShouldNotPanic)

			Convey("Then the cache families should be exported", func() {
				found := gathered("gitstart_pipeline_cache_hits_total", "gitstart_pipeline_cache_writes_total")
				So(found["gitstart_pipeline_cache_hits_total"], ShouldBeTrue)
				So(found["gitstart_pipeline_cache_writes_total"], ShouldBeTrue)
			})
		})

		Convey("When recording adapter metrics", func() {
			So(func() {
				RecordAdapterLatency("heuristic", "ok", 3)
				RecordAdapterLatency("model", "error", 5000)
				RecordAdapterFailure("model", "timeout")
				RecordAdapterRetry("model")
				RecordInferenceRequest("2xx")
			}, ShouldNotPanic)
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateWorkerCount(4)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(15)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/analyze", "POST", "200")
				RecordHTTPRequestDuration("/analyze", "POST", "200", 42)
				RecordErrorByComponent("pipeline", "all_scorers_failed")
				RecordErrorByEndpoint("/recommend", "POST", "profile_not_found")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}
