package syncengine_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/histsync/internal/syncengine"
)

func TestExcludeFilter(t *testing.T) {
	t.Parallel()

	filter, err := syncengine.NewExcludeFilter([]string{"*.tmp", "  ", "Thumbs.db", "build/**", "/docs/drafts"})
	NewWithT(t).Expect(err).NotTo(HaveOccurred())

	tests := []struct {
		path     string
		excluded bool
	}{
		{"notes.txt", false},
		{"scratch.tmp", true},
		{"deep/down/SCRATCH.TMP", true},
		{"pics/thumbs.db", true},
		{"build/out/app", true},
		{"BUILD/Out/App", true},
		{"src/build/out/app", false},
		{"docs/drafts", true},
		{"docs/drafts.txt", false},
		{"docs/final.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(filter.Excluded(tt.path)).To(Equal(tt.excluded))
			g.Expect(filter.ShouldInclude(tt.path)).To(Equal(!tt.excluded))
		})
	}
}

func TestExcludeFilter_NilAndEmpty(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var nilFilter *syncengine.ExcludeFilter
	g.Expect(nilFilter.Excluded("anything")).To(BeFalse())

	empty, err := syncengine.NewExcludeFilter(nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(empty.Excluded("anything")).To(BeFalse())
}

func TestExcludeFilter_InvalidPattern(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := syncengine.NewExcludeFilter([]string{"ok", "bad["})
	g.Expect(err).To(MatchError(ContainSubstring(`"bad["`)))
}
