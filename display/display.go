// Package display projects a coordinator snapshot onto terminal text.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nijaru/pitch-analyzer/coordinator"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/nijaru/pitch-analyzer/utils"
)

const (
	IdlePlaceholder = "No result yet."
	LoadingGeneral  = "Analyzing..."
	LoadingVideo    = "Processing video..."
)

type Options struct {
	// Width wraps the transcript block; zero leaves it unwrapped.
	Width int
	// Channels adds a per-channel status table above the result.
	Channels bool
	// Cursor highlights one channel in the table.
	Cursor models.ChannelKind
}

// Render draws the whole view: optional channel table, error, loading lines,
// result and footer.
func Render(snap coordinator.Snapshot, opts Options) string {
	var sections []string
	if opts.Channels {
		sections = append(sections, RenderChannels(snap, opts.Cursor))
	}
	sections = append(sections, RenderResult(snap, opts.Width))
	if !isIdle(snap) {
		sections = append(sections, footerStyle.Render("Backend: "+snap.BaseURL))
	}
	return strings.Join(sections, "\n\n")
}

// RenderResult draws the error, loading and result area only.
func RenderResult(snap coordinator.Snapshot, width int) string {
	if isIdle(snap) {
		return mutedStyle.Render(IdlePlaceholder) + "\n" + footerStyle.Render("Backend: "+snap.BaseURL)
	}

	var blocks []string
	if snap.Error != "" {
		blocks = append(blocks, errorStyle.Render("Error: ")+snap.Error)
	}
	if snap.Loading.General {
		blocks = append(blocks, loadingStyle.Render(LoadingGeneral))
	}
	if snap.Loading.Video {
		blocks = append(blocks, loadingStyle.Render(LoadingVideo))
	}
	if snap.Result != nil {
		blocks = append(blocks, renderAnalysis(*snap.Result, width))
	}
	return strings.Join(blocks, "\n\n")
}

func isIdle(snap coordinator.Snapshot) bool {
	return snap.Error == "" && snap.Result == nil && !snap.Loading.Any()
}

func renderAnalysis(result models.AnalysisResult, width int) string {
	if !result.IsComposite() {
		return utils.PrettyJSON(result.Raw)
	}

	transcript := result.Transcript
	if width > 0 {
		transcript = lipgloss.NewStyle().Width(width).Render(transcript)
	}
	return headingStyle.Render("Transcript:") + "\n" + transcript +
		"\n\n" + headingStyle.Render("Analysis:") + "\n" + utils.PrettyJSON(result.Analysis)
}

var channelLabels = map[models.ChannelKind]string{
	models.ChannelText:     "Text",
	models.ChannelAudio:    "Audio",
	models.ChannelTextFile: "Text file",
	models.ChannelPdfFile:  "Pitch deck",
	models.ChannelVideo:    "Video",
}

func Label(kind models.ChannelKind) string {
	if label, ok := channelLabels[kind]; ok {
		return label
	}
	return string(kind)
}

// RenderChannels lists each channel with its input and status.
func RenderChannels(snap coordinator.Snapshot, cursor models.ChannelKind) string {
	lines := []string{titleStyle.Render("Pitch Analyzer")}
	for _, kind := range models.Channels {
		marker := " "
		if kind == cursor {
			marker = "▶"
		}
		state := snap.Channels[kind]
		status := string(state.Status)
		if status == "" {
			status = string(models.StatusIdle)
		}
		styled := statusStyles[status].Render(status)
		lines = append(lines, fmt.Sprintf("%s %-10s  %-40s  %s", marker, Label(kind), inputSummary(snap.Inputs, kind), styled))
	}
	return strings.Join(lines, "\n")
}

func inputSummary(in coordinator.Inputs, kind models.ChannelKind) string {
	switch kind {
	case models.ChannelText:
		return truncate(strings.Join(strings.Fields(in.Text), " "), 40)
	case models.ChannelAudio:
		return blobName(in.Audio)
	case models.ChannelTextFile:
		return blobName(in.TextFile)
	case models.ChannelPdfFile:
		return blobName(in.PdfFile)
	case models.ChannelVideo:
		parts := []string{}
		if in.VideoFile != nil {
			parts = append(parts, in.VideoFile.Name)
		}
		if in.VideoURL != "" {
			parts = append(parts, in.VideoURL)
		}
		return truncate(strings.Join(parts, " + "), 40)
	}
	return ""
}

func blobName(b *models.Blob) string {
	if b == nil {
		return ""
	}
	return truncate(b.Name, 40)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
