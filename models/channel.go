package models

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type ChannelKind string

const (
	ChannelText     ChannelKind = "text"
	ChannelAudio    ChannelKind = "audio"
	ChannelTextFile ChannelKind = "textfile"
	ChannelPdfFile  ChannelKind = "pdf"
	ChannelVideo    ChannelKind = "video"
)

// Channels lists every channel in display order.
var Channels = []ChannelKind{ChannelText, ChannelAudio, ChannelTextFile, ChannelPdfFile, ChannelVideo}

type Group string

const (
	GroupGeneral Group = "general"
	GroupVideo   Group = "video"
)

func (k ChannelKind) Group() Group {
	if k == ChannelVideo {
		return GroupVideo
	}
	return GroupGeneral
}

// Endpoint is the backend path the channel posts to.
func (k ChannelKind) Endpoint() string {
	switch k {
	case ChannelText:
		return "/analyze-text/"
	case ChannelAudio:
		return "/analyze-audio/"
	case ChannelTextFile:
		return "/analyze-file/"
	case ChannelPdfFile:
		return "/analyze-pitch-deck/"
	case ChannelVideo:
		return "/analyze-video/"
	default:
		return ""
	}
}

func (k ChannelKind) Valid() bool {
	return k.Endpoint() != ""
}

func ParseChannelKind(s string) (ChannelKind, bool) {
	k := ChannelKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Blob is a named file payload. Open may be called once per request.
type Blob struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func BlobFromBytes(name string, data []byte) *Blob {
	return &Blob{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func BlobFromFile(path string) (*Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Blob{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// ChannelInput carries the payload for exactly one channel.
type ChannelInput struct {
	Kind ChannelKind
	Text string
	File *Blob
	URL  string
}

func TextInput(text string) ChannelInput {
	return ChannelInput{Kind: ChannelText, Text: text}
}

func AudioInput(file *Blob) ChannelInput {
	return ChannelInput{Kind: ChannelAudio, File: file}
}

func TextFileInput(file *Blob) ChannelInput {
	return ChannelInput{Kind: ChannelTextFile, File: file}
}

func PdfInput(file *Blob) ChannelInput {
	return ChannelInput{Kind: ChannelPdfFile, File: file}
}

func VideoInput(file *Blob, url string) ChannelInput {
	return ChannelInput{Kind: ChannelVideo, File: file, URL: url}
}

// SubmissionRequest is the wire form of a validated ChannelInput.
type SubmissionRequest struct {
	Channel ChannelKind
	Path    string
	// JSON is set for the text channel.
	JSON *TranscriptRequest
	// File and YouTubeURL fill the multipart body of the file channels.
	File       *Blob
	YouTubeURL string
}

func (r SubmissionRequest) IsMultipart() bool {
	return r.JSON == nil
}

type TranscriptRequest struct {
	Transcript string `json:"transcript"`
}

// NewSubmissionRequest maps an input onto its wire form. It does not validate.
func NewSubmissionRequest(in ChannelInput) SubmissionRequest {
	req := SubmissionRequest{
		Channel: in.Kind,
		Path:    in.Kind.Endpoint(),
	}
	switch in.Kind {
	case ChannelText:
		req.JSON = &TranscriptRequest{Transcript: in.Text}
	case ChannelVideo:
		req.File = in.File
		req.YouTubeURL = in.URL
	default:
		req.File = in.File
	}
	return req
}
