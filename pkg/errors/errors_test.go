package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/histsync/pkg/errors"
)

func TestClassify_TypedErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected errors.ErrorCategory
	}{
		{"fs permission", fs.ErrPermission, errors.CategoryPermission},
		{"wrapped EACCES", &os.PathError{Op: "open", Path: "/a", Err: syscall.EACCES}, errors.CategoryPermission},
		{"EPERM", fmt.Errorf("copy: %w", syscall.EPERM), errors.CategoryPermission},
		{"busy", &os.PathError{Op: "open", Path: "/a", Err: syscall.EBUSY}, errors.CategoryLocked},
		{"text file busy", syscall.ETXTBSY, errors.CategoryLocked},
		{"disk full", fmt.Errorf("write: %w", syscall.ENOSPC), errors.CategoryDiskSpace},
		{"missing", &os.PathError{Op: "stat", Path: "/a", Err: syscall.ENOENT}, errors.CategoryPath},
		{"not a directory", syscall.ENOTDIR, errors.CategoryPath},
		{"cross device", &os.LinkError{Op: "rename", Old: "/a", New: "/b", Err: syscall.EXDEV}, errors.CategoryCopy},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(errors.Classify(testCase.err)).To(Equal(testCase.expected))
		})
	}
}

func TestClassify_FallsBackToMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		msg      string
		expected errors.ErrorCategory
	}{
		{"The process cannot access the file because it is being used by another process.", errors.CategoryLocked},
		{"Sharing violation", errors.CategoryLocked},
		{"ACCESS IS DENIED", errors.CategoryPermission},
		{"No Space Left On Device", errors.CategoryDiskSpace},
		{"path does not exist", errors.CategoryPath},
		{"short write", errors.CategoryCopy},
		{"something unexpected", errors.CategoryUnknown},
	}

	for _, testCase := range testCases {
		t.Run(testCase.msg, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(errors.Classify(stderrors.New(testCase.msg))).To(Equal(testCase.expected))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(errors.Classify(nil)).To(Equal(errors.CategoryUnknown))
	g.Expect(errors.IsRetryable(nil)).To(BeFalse())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(errors.IsRetryable(&os.PathError{Op: "open", Path: "/a", Err: syscall.EACCES})).To(BeTrue())
	g.Expect(errors.IsRetryable(syscall.EBUSY)).To(BeTrue())
	g.Expect(errors.IsRetryable(stderrors.New("file is being used by another process"))).To(BeTrue())

	g.Expect(errors.IsRetryable(syscall.ENOSPC)).To(BeFalse())
	g.Expect(errors.IsRetryable(fs.ErrNotExist)).To(BeFalse())
	g.Expect(errors.IsRetryable(stderrors.New("boom"))).To(BeFalse())
}

func TestEnricher_KeepsUnderlyingError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	original := &os.PathError{Op: "open", Path: "/backup/report.txt", Err: syscall.EACCES}
	enriched := errors.NewEnricher().Enrich(original, "")

	var actionable errors.ActionableError
	g.Expect(stderrors.As(enriched, &actionable)).To(BeTrue())
	g.Expect(actionable.Category()).To(Equal(errors.CategoryPermission))
	g.Expect(actionable.AffectedPath()).To(Equal("/backup/report.txt"))
	g.Expect(actionable.Error()).To(Equal(original.Error()))
	g.Expect(enriched).To(MatchError(fs.ErrPermission))
}

func TestEnricher_ExplicitPathWins(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	enriched := errors.NewEnricher().Enrich(stderrors.New("open /a/b: permission denied"), "/explicit")

	var actionable errors.ActionableError
	g.Expect(stderrors.As(enriched, &actionable)).To(BeTrue())
	g.Expect(actionable.AffectedPath()).To(Equal("/explicit"))
	g.Expect(strings.Join(actionable.Suggestions(), "\n")).To(ContainSubstring("/explicit"))
}

func TestEnricher_AlreadyActionableIsUnchanged(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	existing := errors.NewActionableError(stderrors.New("x"), errors.CategoryCopy, []string{"s"}, "/p")
	wrapped := fmt.Errorf("reconcile: %w", existing)

	g.Expect(errors.NewEnricher().Enrich(wrapped, "/other")).To(BeIdenticalTo(existing))
}

func TestEnricher_Nil(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(errors.NewEnricher().Enrich(nil, "/p")).To(Succeed())
}

func TestEnricher_ExtractsWindowsPath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	enriched := errors.NewEnricher().Enrich(stderrors.New(`open C:\Users\me\doc.txt: sharing violation`), "")

	var actionable errors.ActionableError
	g.Expect(stderrors.As(enriched, &actionable)).To(BeTrue())
	g.Expect(actionable.AffectedPath()).To(Equal(`C:\Users\me\doc.txt`))
	g.Expect(actionable.Category()).To(Equal(errors.CategoryLocked))
}

func TestSuggestionGenerator_EveryCategoryHasAdvice(t *testing.T) {
	t.Parallel()

	generator := errors.NewSuggestionGenerator()
	categories := []errors.ErrorCategory{
		errors.CategoryCopy,
		errors.CategoryDiskSpace,
		errors.CategoryLocked,
		errors.CategoryPath,
		errors.CategoryPermission,
		errors.CategoryUnknown,
		errors.ErrorCategory("made_up"),
	}

	for _, category := range categories {
		t.Run(string(category), func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(generator.Generate(category, "")).NotTo(BeEmpty())
			g.Expect(generator.Generate(category, "/data/file")).NotTo(BeEmpty())
		})
	}
}

func TestSuggestionGenerator_LockedMentionsPath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	suggestions := errors.NewSuggestionGenerator().Generate(errors.CategoryLocked, "/src/book.xlsx")

	g.Expect(suggestions[0]).To(ContainSubstring("/src/book.xlsx"))
	g.Expect(suggestions).To(ContainElement(ContainSubstring("--retries")))
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(errors.FormatSuggestions(nil)).To(BeEmpty())
	g.Expect(errors.FormatSuggestions(stderrors.New("plain"))).To(BeEmpty())
	g.Expect(errors.FormatSuggestions(
		errors.NewActionableError(stderrors.New("x"), errors.CategoryUnknown, nil, ""),
	)).To(BeEmpty())

	formatted := errors.FormatSuggestions(
		errors.NewActionableError(stderrors.New("x"), errors.CategoryCopy, []string{"one", "two"}, ""),
	)
	g.Expect(formatted).To(Equal("  • one\n  • two"))
}

func TestErrorCategory_Retryable(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(errors.CategoryPermission.Retryable()).To(BeTrue())
	g.Expect(errors.CategoryLocked.Retryable()).To(BeTrue())
	g.Expect(errors.CategoryDiskSpace.Retryable()).To(BeFalse())
	g.Expect(errors.CategoryCopy.Retryable()).To(BeFalse())
}
