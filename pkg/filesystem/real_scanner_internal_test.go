//nolint:varnamelen,testpackage // Test files use idiomatic short variable names
package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func TestRealFileScanner_YieldsEveryEntryOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	tmpDir := t.TempDir()
	g.Expect(os.MkdirAll(filepath.Join(tmpDir, "sub"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("a"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(tmpDir, "sub", "b.txt"), []byte("bb"), 0o644)).To(Succeed())

	scanner := newRealFileScanner(tmpDir)

	seen := make(map[string]FileInfo)
	for {
		file, ok := scanner.Next()
		if !ok {
			break
		}
		g.Expect(seen).NotTo(HaveKey(file.RelativePath))
		seen[file.RelativePath] = file
	}

	g.Expect(scanner.Err()).NotTo(HaveOccurred())
	g.Expect(seen).To(HaveLen(3))
	g.Expect(seen["sub"].IsDir).To(BeTrue())
	g.Expect(seen["a.txt"].IsRegular()).To(BeTrue())
	g.Expect(seen[filepath.Join("sub", "b.txt")].Size).To(Equal(int64(2)))
}

func TestRealFileScanner_EmptyDirectory(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	scanner := newRealFileScanner(t.TempDir())

	_, ok := scanner.Next()
	g.Expect(ok).To(BeFalse())
	g.Expect(scanner.Err()).NotTo(HaveOccurred())
}

func TestRealFileScanner_MissingRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	scanner := newRealFileScanner(filepath.Join(t.TempDir(), "missing"))

	_, ok := scanner.Next()
	g.Expect(ok).To(BeFalse())
	g.Expect(scanner.Err()).To(MatchError(os.ErrNotExist))
}

func TestRealFileScanner_ReportsSymlinksWithoutFollowing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target")
	g.Expect(os.MkdirAll(target, 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(target, "inside.txt"), []byte("x"), 0o644)).To(Succeed())

	if err := os.Symlink(target, filepath.Join(tmpDir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	scanner := newRealFileScanner(tmpDir)

	var paths []string
	var link FileInfo
	for {
		file, ok := scanner.Next()
		if !ok {
			break
		}
		paths = append(paths, file.RelativePath)
		if file.RelativePath == "link" {
			link = file
		}
	}

	g.Expect(scanner.Err()).NotTo(HaveOccurred())
	g.Expect(paths).NotTo(ContainElement(filepath.Join("link", "inside.txt")))
	g.Expect(link.Mode & os.ModeSymlink).NotTo(BeZero())
	g.Expect(link.IsRegular()).To(BeFalse())
}
