package metrics

import (
	"testing"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunStarted()
	m.RunStarted()
	m.StageFinished(models.StageBuilding, 2*time.Second)
	m.RunFinished(models.StageDeployed, "", "")
	m.RunFinished(models.StageFailed, models.StageBuilding, "build")

	if got := testutil.ToFloat64(m.ActiveRuns); got != 0 {
		t.Errorf("active runs = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("deployed")); got != 1 {
		t.Errorf("deployed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("building", "build")); got != 1 {
		t.Errorf("build failures = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.StageDuration); n != 1 {
		t.Errorf("expected one stage histogram series, got %d", n)
	}
}

func TestNewUnregistered(t *testing.T) {
	// Two instances without a registry must not collide.
	New(nil).RunStarted()
	New(nil).RunStarted()
}
