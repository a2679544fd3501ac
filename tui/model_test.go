package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nijaru/pitch-analyzer/coordinator"
	"github.com/nijaru/pitch-analyzer/db"
	"github.com/nijaru/pitch-analyzer/logger"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/nijaru/pitch-analyzer/validation"
)

type stubAnalyzer struct {
	calls int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req models.SubmissionRequest) (models.AnalysisResult, error) {
	s.calls++
	return models.ClassifyResult([]byte(`{"transcript":"t","analysis":{"a":1}}`))
}

func (s *stubAnalyzer) BaseURL() string { return "http://localhost:8000" }

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, ref string) (*models.Blob, error) {
	if strings.HasPrefix(ref, "missing") {
		return nil, errors.New("file not found")
	}
	return models.BlobFromBytes(ref, []byte("data")), nil
}

type stubHistory struct {
	entries []db.Entry
}

func (s stubHistory) Recent(ctx context.Context, limit int) ([]db.Entry, error) {
	return s.entries, nil
}

func newModel(t *testing.T) (*Model, *coordinator.Coordinator, *stubAnalyzer) {
	t.Helper()
	analyzer := &stubAnalyzer{}
	coord := coordinator.New(analyzer, coordinator.Options{Logger: logger.Discard()})
	m := New(context.Background(), coord, stubResolver{}, stubHistory{})
	t.Cleanup(m.unsubscribe)
	return m, coord, analyzer
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestCursorMovement(t *testing.T) {
	m, _, _ := newModel(t)

	press(m, runes("k"))
	if m.selected() != models.ChannelText {
		t.Fatalf("expected cursor to stay on text, got %s", m.selected())
	}
	press(m, runes("j"), runes("j"))
	if m.selected() != models.ChannelTextFile {
		t.Errorf("expected textfile, got %s", m.selected())
	}
	for i := 0; i < 10; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.selected() != models.ChannelVideo {
		t.Errorf("expected cursor to stop at video, got %s", m.selected())
	}
}

func TestEditTextAndSubmit(t *testing.T) {
	m, coord, analyzer := newModel(t)

	press(m, runes("e"), runes("We sell rockets"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing != editNone {
		t.Fatal("expected editing to end on enter")
	}
	if got := coord.Snapshot().Inputs.Text; got != "We sell rockets" {
		t.Fatalf("expected text to be stored, got %q", got)
	}

	press(m, runes("s"))
	coord.Wait()

	if analyzer.calls != 1 {
		t.Errorf("expected 1 request, got %d", analyzer.calls)
	}
	if _, ok := coord.Result(); !ok {
		t.Error("expected a result after submission")
	}
}

func TestEditCancel(t *testing.T) {
	m, coord, _ := newModel(t)

	press(m, runes("e"), runes("draft"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing != editNone {
		t.Fatal("expected editing to end on esc")
	}
	if got := coord.Snapshot().Inputs.Text; got != "" {
		t.Errorf("expected text to stay empty, got %q", got)
	}
}

func TestSubmitEmptyShowsValidationMessage(t *testing.T) {
	m, coord, analyzer := newModel(t)

	press(m, runes("j"), runes("s"))
	coord.Wait()

	msg, _ := coord.Error()
	if msg != validation.MsgAudioRequired {
		t.Errorf("expected %q, got %q", validation.MsgAudioRequired, msg)
	}
	if analyzer.calls != 0 {
		t.Errorf("expected no request, got %d", analyzer.calls)
	}
}

func TestSubmitRefusedWhileGroupBusy(t *testing.T) {
	m, coord, analyzer := newModel(t)
	coord.SetText("hello")
	m.snap.Loading.General = true

	press(m, runes("s"))
	coord.Wait()

	if analyzer.calls != 0 {
		t.Errorf("expected no request while busy, got %d", analyzer.calls)
	}
	if m.status == "" {
		t.Error("expected a status message")
	}
}

func TestSelectFileThroughResolver(t *testing.T) {
	m, coord, _ := newModel(t)

	cmd := press(m, runes("j"), runes("e"), runes("pitch.mp3"), tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a resolve command")
	}
	press(m, cmd())

	audio := coord.Snapshot().Inputs.Audio
	if audio == nil || audio.Name != "pitch.mp3" {
		t.Fatalf("expected pitch.mp3 to be selected, got %+v", audio)
	}

	cmd = press(m, runes("e"), runes("missing.mp3"), tea.KeyMsg{Type: tea.KeyEnter})
	press(m, cmd())
	if m.status != "file not found" {
		t.Errorf("expected resolver error in status, got %q", m.status)
	}
	if coord.Snapshot().Inputs.Audio.Name != "pitch.mp3" {
		t.Error("expected previous selection to remain")
	}
}

func TestVideoLink(t *testing.T) {
	m, coord, _ := newModel(t)

	press(m, runes("u"))
	if m.editing != editNone {
		t.Fatal("expected link editing to be video only")
	}

	for i := 0; i < 4; i++ {
		press(m, runes("j"))
	}
	press(m, runes("u"), runes("https://youtu.be/abc"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := coord.Snapshot().Inputs.VideoURL; got != "https://youtu.be/abc" {
		t.Fatalf("expected video url, got %q", got)
	}

	press(m, runes("s"))
	coord.Wait()
	if got := coord.Snapshot().Inputs.VideoURL; got != "" {
		t.Errorf("expected video url to be cleared after success, got %q", got)
	}
}

func TestSnapshotMessageUpdatesView(t *testing.T) {
	m, _, _ := newModel(t)

	view := m.View()
	if !strings.Contains(view, "Pitch Analyzer") || !strings.Contains(view, "No result yet.") {
		t.Fatalf("unexpected initial view: %q", view)
	}

	snap := m.snap
	snap.Error = "Server error"
	press(m, snapshotMsg(snap))
	if !strings.Contains(m.View(), "Server error") {
		t.Errorf("expected error in view, got %q", m.View())
	}
}

func TestHistoryPane(t *testing.T) {
	analyzer := &stubAnalyzer{}
	coord := coordinator.New(analyzer, coordinator.Options{Logger: logger.Discard()})
	finished := time.Now()
	history := stubHistory{entries: []db.Entry{{
		ID:         "1",
		Channel:    models.ChannelPdfFile,
		Outcome:    db.OutcomeFailed,
		Message:    "Only .pdf files are supported.",
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: &finished,
	}}}
	m := New(context.Background(), coord, stubResolver{}, history)
	defer m.unsubscribe()

	cmd := press(m, runes("h"))
	if cmd == nil {
		t.Fatal("expected a history command")
	}
	press(m, cmd())

	view := m.View()
	for _, want := range []string{"Recent submissions", "Pitch deck", "failed", "Only .pdf files are supported."} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}
