package syncengine_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/histsync/internal/syncengine"
)

func TestComputeProgress(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	metrics := syncengine.ComputeProgress(25, 100, 2048, 10*time.Second)

	g.Expect(metrics.FilesPercent).To(BeNumerically("~", 25.0))
	g.Expect(metrics.BytesPerSecond).To(BeNumerically("~", 204.8))
	g.Expect(metrics.EstimatedTimeLeft).To(Equal(30 * time.Second))
}

func TestComputeProgress_UnknownTotal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	metrics := syncengine.ComputeProgress(5, 0, 100, time.Second)

	g.Expect(metrics.FilesPercent).To(BeZero())
	g.Expect(metrics.EstimatedTimeLeft).To(BeZero())
	g.Expect(metrics.BytesPerSecond).To(BeNumerically("~", 100.0))
}

func TestComputeProgress_ClampsOvershoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	metrics := syncengine.ComputeProgress(12, 10, 0, 0)

	g.Expect(metrics.FilesPercent).To(BeNumerically("~", 100.0))
	g.Expect(metrics.BytesPerSecond).To(BeZero())
	g.Expect(metrics.EstimatedTimeLeft).To(BeZero())
}
