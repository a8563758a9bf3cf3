package tui

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/histsync/internal/config"
	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/internal/tui/shared"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

// finishRun waits for the running task and delivers its outcome.
func finishRun(m *Model) {
	Expect(m.task).NotTo(BeNil())
	result, err := m.task.Wait()
	send(m, shared.BackupFinishedMsg{Result: result, Err: err})
}

var _ = Describe("Model", func() {
	var (
		root     string
		cfg      *config.Config
		settings *config.SettingsStore
		model    *Model
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "src", "docs"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, "src", "docs", "a.txt"), []byte("hello"), 0o644)).To(Succeed())

		cfg = &config.Config{
			InteractiveMode: true,
			Retries:         0,
			RetryDelay:      time.Millisecond,
		}
		settings = config.NewSettingsStore(filepath.Join(root, "settings", "settings.toml"))
		model = NewModel(cfg, Options{Settings: settings})
	})

	Describe("Phase", func() {
		It("names phases for the timeline", func() {
			Expect(PhaseInput.String()).To(Equal("input"))
			Expect(PhaseRunning.String()).To(Equal("backup"))
			Expect(PhaseSummary.String()).To(Equal("done"))
		})
	})

	Describe("Input", func() {
		It("starts at the input phase with the form", func() {
			Expect(model.Phase()).To(Equal(PhaseInput))

			view := model.View()
			Expect(view).To(ContainSubstring("Source folder"))
			Expect(view).To(ContainSubstring("Backup folder"))
			Expect(view).To(ContainSubstring("History folder"))
		})

		It("pre-fills remembered folders and focuses the first empty one", func() {
			input := NewInputModel("/s", "", "/h")

			source, backup, history := input.Values()
			Expect(source).To(Equal("/s"))
			Expect(backup).To(BeEmpty())
			Expect(history).To(Equal("/h"))
			Expect(input.focusIndex).To(Equal(fieldBackup))
		})

		It("does not advance past an empty field", func() {
			send(model, key("enter"))
			Expect(model.input.focusIndex).To(Equal(fieldSource))
		})

		It("reports validation errors in the form", func() {
			model.input = NewInputModel(filepath.Join(root, "missing"), filepath.Join(root, "b"), filepath.Join(root, "h"))
			model.input.focus(fieldHistory)

			cmd := send(model, key("enter"))

			Expect(cmd).To(BeNil())
			Expect(model.Phase()).To(Equal(PhaseInput))
			Expect(model.View()).To(ContainSubstring("source path does not exist"))
		})

		It("asks for a run when every folder is valid", func() {
			model.input = NewInputModel(filepath.Join(root, "src"), filepath.Join(root, "b"), filepath.Join(root, "h"))
			model.input.focus(fieldHistory)

			cmd := send(model, key("enter"))

			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(shared.StartBackupMsg{
				SourcePath:  filepath.Join(root, "src"),
				BackupPath:  filepath.Join(root, "b"),
				HistoryPath: filepath.Join(root, "h"),
			}))
		})

		It("quits on esc", func() {
			cmd := send(model, key("esc"))

			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))
			Expect(model.View()).To(BeEmpty())
		})

		It("completes directories on tab", func() {
			model.input = NewInputModel(filepath.Join(root, "sr"), "", "")
			model.input.focus(fieldSource)

			send(model, tea.KeyMsg{Type: tea.KeyTab})

			source, _, _ := model.input.Values()
			Expect(source).To(Equal(filepath.Join(root, "src") + string(filepath.Separator)))
		})
	})

	Describe("Running a backup", func() {
		var start shared.StartBackupMsg

		BeforeEach(func() {
			start = shared.StartBackupMsg{
				SourcePath:  filepath.Join(root, "src"),
				BackupPath:  filepath.Join(root, "b"),
				HistoryPath: filepath.Join(root, "h"),
			}
		})

		It("runs the engine and shows the summary", func() {
			cmd := send(model, start)

			Expect(cmd).NotTo(BeNil())
			Expect(model.Phase()).To(Equal(PhaseRunning))
			Expect(model.View()).To(ContainSubstring("Backing up"))

			finishRun(model)

			Expect(model.Phase()).To(Equal(PhaseSummary))
			result, err := model.Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FilesCopied).To(Equal(1))
			Expect(filepath.Join(root, "b", "docs", "a.txt")).To(BeARegularFile())
			Expect(filepath.Join(root, "h", "docs")).To(BeADirectory())
			Expect(model.View()).To(ContainSubstring("Backup complete"))
		})

		It("remembers the folders for next time", func() {
			send(model, start)
			finishRun(model)

			saved, err := settings.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Paths.SourceFolder).To(Equal(start.SourcePath))
			Expect(saved.Paths.BackupFolder).To(Equal(start.BackupPath))
			Expect(saved.Paths.HistoryFolder).To(Equal(start.HistoryPath))
		})

		It("cancels on esc", func() {
			send(model, start)
			send(model, key("esc"))

			Expect(model.cancelling).To(BeTrue())
			Expect(model.View()).To(ContainSubstring("Cancelling"))

			finishRun(model)
			Expect(model.Phase()).To(Equal(PhaseSummary))
		})

		It("shows a cancelled run as cancelled", func() {
			send(model, start)
			finishRun(model)
			model.runErr = syncengine.ErrRunCancelled

			Expect(model.Cancelled()).To(BeTrue())
			Expect(model.View()).To(ContainSubstring("Backup cancelled"))
		})

		It("explains a run that could not start", func() {
			start.BackupPath = filepath.Join(start.SourcePath, "inner")

			send(model, start)
			finishRun(model)

			_, err := model.Result()
			Expect(errors.Is(err, syncengine.ErrTargetInsideSource)).To(BeTrue())
			view := model.View()
			Expect(view).To(ContainSubstring("Backup did not start"))
			Expect(view).To(ContainSubstring("outside the source"))
		})

		It("returns to the form on enter and quits on q", func() {
			send(model, start)
			finishRun(model)

			send(model, key("enter"))
			Expect(model.Phase()).To(Equal(PhaseInput))
			source, _, _ := model.input.Values()
			Expect(source).To(Equal(start.SourcePath))

			send(model, start)
			finishRun(model)

			cmd := send(model, key("q"))
			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))
		})

		It("starts immediately when not interactive", func() {
			cfg.InteractiveMode = false
			cfg.SourcePath = start.SourcePath
			cfg.BackupPath = start.BackupPath
			cfg.HistoryPath = start.HistoryPath

			headless := NewModel(cfg, Options{})
			cmd := headless.Init()

			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(start))
		})
	})

	Describe("Engine events", func() {
		BeforeEach(func() {
			model.phase = PhaseRunning
			model.bridge = shared.NewEventBridge()
		})

		It("tracks progress and activity", func() {
			send(model, shared.EngineEventMsg{Event: syncengine.RunStarted{TotalFiles: 4}})
			send(model, shared.EngineEventMsg{Event: syncengine.FileCopied{RelPath: "a", Bytes: 10, New: true}})
			send(model, shared.EngineEventMsg{Event: syncengine.FileUnchanged{RelPath: "b"}})
			send(model, shared.EngineEventMsg{Event: syncengine.RetryScheduled{RelPath: "c", Attempt: 1}})
			send(model, shared.EngineEventMsg{Event: syncengine.FileFailed{RelPath: "c", Err: errors.New("denied")}})

			Expect(model.totalFiles).To(Equal(4))
			Expect(model.filesDone).To(Equal(3))
			Expect(model.bytes).To(Equal(int64(10)))
			Expect(model.retries).To(Equal(1))
			Expect(model.failures).To(Equal(1))
			Expect(model.activity).To(HaveLen(3))

			view := model.View()
			Expect(view).To(ContainSubstring("3/4 files"))
			Expect(view).To(ContainSubstring("1 retries, 1 failed"))
			Expect(view).To(ContainSubstring("Recent activity"))
		})

		It("bounds the activity history", func() {
			for range activityLimit + 5 {
				send(model, shared.EngineEventMsg{Event: syncengine.FileCopied{RelPath: "x", New: true}})
			}

			Expect(model.activity).To(HaveLen(activityLimit))
		})
	})

	Describe("Window size", func() {
		It("stores the size and resizes widgets", func() {
			send(model, tea.WindowSizeMsg{Width: 80, Height: 30})

			Expect(model.width).To(Equal(80))
			Expect(model.height).To(Equal(30))
			Expect(model.progress.Width).To(Equal(70))
			Expect(model.input.inputs[fieldSource].Width).To(Equal(70))
		})
	})
})
