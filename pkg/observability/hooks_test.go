package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLayoutStart(ctx, "layered", 100)
	p.OnStageComplete(ctx, "layered", "rank", time.Millisecond)
	p.OnLayoutComplete(ctx, "layered", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/layout")
	h.OnResponse(ctx, "POST", "/v1/layout", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	h := NewPrometheusHooks(prometheus.NewRegistry())

	h.OnLayoutStart(ctx, "layered", 12)
	h.OnLayoutComplete(ctx, "layered", time.Millisecond, nil)
	h.OnLayoutComplete(ctx, "minimal", time.Millisecond, errors.New("boom"))
	h.OnStageComplete(ctx, "layered", "rank", time.Millisecond)

	if got := testutil.ToFloat64(h.LayoutsTotal.WithLabelValues("layered", "ok")); got != 1 {
		t.Errorf("layouts{layered,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.LayoutsTotal.WithLabelValues("minimal", "error")); got != 1 {
		t.Errorf("layouts{minimal,error} = %v, want 1", got)
	}

	h.OnCacheHit(ctx, "layout")
	h.OnCacheHit(ctx, "layout")
	h.OnCacheMiss(ctx, "layout")
	h.OnCacheSet(ctx, "layout", 512)
	if got := testutil.ToFloat64(h.CacheRequests.WithLabelValues("layout", "hit")); got != 2 {
		t.Errorf("cache{hit} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.CacheBytes.WithLabelValues("layout")); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}

	h.OnRequest(ctx, "POST", "/v1/layout")
	if got := testutil.ToFloat64(h.HTTPRequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	h.OnResponse(ctx, "POST", "/v1/layout", 400, time.Millisecond)
	if got := testutil.ToFloat64(h.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(h.HTTPRequestsTotal.WithLabelValues("POST", "/v1/layout", "400")); got != 1 {
		t.Errorf("requests{400} = %v, want 1", got)
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
