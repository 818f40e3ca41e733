package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/ddlayout/pkg/observability"
)

func TestHooks_Layout(t *testing.T) {
	h := Hooks{}
	before := testutil.ToFloat64(LayoutPasses.WithLabelValues("success"))
	h.OnLayoutComplete("p1", observability.LayoutStats{Duration: time.Millisecond, Groups: 5, Dummies: 2, Crossings: 1}, nil)

	if got := testutil.ToFloat64(LayoutPasses.WithLabelValues("success")); got != before+1 {
		t.Errorf("success passes = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(LayoutGroups); got != 5 {
		t.Errorf("groups = %v, want 5", got)
	}
	if got := testutil.ToFloat64(LayoutCrossings); got != 1 {
		t.Errorf("crossings = %v, want 1", got)
	}

	errsBefore := testutil.ToFloat64(LayoutPasses.WithLabelValues("error"))
	h.OnLayoutComplete("p2", observability.LayoutStats{Groups: 9}, errors.New("boom"))
	if got := testutil.ToFloat64(LayoutPasses.WithLabelValues("error")); got != errsBefore+1 {
		t.Errorf("error passes = %v, want %v", got, errsBefore+1)
	}
	if got := testutil.ToFloat64(LayoutGroups); got != 5 {
		t.Errorf("failed pass should not update gauges, groups = %v", got)
	}
}

func TestHooks_Registered(t *testing.T) {
	Register()
	defer observability.Reset()

	before := testutil.ToFloat64(ChangesDispatched)
	observability.Changes().OnDispatch(3, 1)
	if got := testutil.ToFloat64(ChangesDispatched); got != before+3 {
		t.Errorf("changes = %v, want %v", got, before+3)
	}

	hits := testutil.ToFloat64(CacheRequests.WithLabelValues("layout", "hit"))
	observability.Cache().OnCacheHit(context.Background(), "layout")
	if got := testutil.ToFloat64(CacheRequests.WithLabelValues("layout", "hit")); got != hits+1 {
		t.Errorf("cache hits = %v, want %v", got, hits+1)
	}

	observability.Render().OnRender("text", time.Millisecond, nil)
	if got := testutil.ToFloat64(Renders.WithLabelValues("text", "ok")); got < 1 {
		t.Errorf("renders = %v, want >= 1", got)
	}
}
