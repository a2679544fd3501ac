package validation

import (
	"testing"

	"github.com/nijaru/pitch-analyzer/errors"
	"github.com/nijaru/pitch-analyzer/models"
)

func TestValidateInput(t *testing.T) {
	blob := models.BlobFromBytes("deck.pdf", []byte("%PDF"))
	v := NewValidator(Options{})

	tests := []struct {
		name    string
		input   models.ChannelInput
		wantMsg string
	}{
		{name: "empty text", input: models.TextInput(""), wantMsg: MsgTextRequired},
		{name: "blank text", input: models.TextInput(" \n\t "), wantMsg: MsgTextRequired},
		{name: "text", input: models.TextInput("Hello world"), wantMsg: ""},
		{name: "no audio", input: models.AudioInput(nil), wantMsg: MsgAudioRequired},
		{name: "audio", input: models.AudioInput(blob), wantMsg: ""},
		{name: "no txt", input: models.TextFileInput(nil), wantMsg: MsgTextFileRequired},
		{name: "no pdf", input: models.PdfInput(nil), wantMsg: MsgPdfRequired},
		{name: "pdf", input: models.PdfInput(blob), wantMsg: ""},
		{name: "no video", input: models.VideoInput(nil, ""), wantMsg: MsgVideoRequired},
		{name: "blank video url", input: models.VideoInput(nil, "   "), wantMsg: MsgVideoRequired},
		{name: "video url only", input: models.VideoInput(nil, "https://youtube.com/watch?v=x"), wantMsg: ""},
		{name: "video file only", input: models.VideoInput(blob, ""), wantMsg: ""},
		{name: "non-youtube url without strict mode", input: models.VideoInput(nil, "https://example.com/v.mp4"), wantMsg: ""},
		{name: "unknown channel", input: models.ChannelInput{Kind: "image"}, wantMsg: MsgUnknownChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if errors.Message(err) != tt.wantMsg {
				t.Errorf("expected '%s', got '%s'", tt.wantMsg, errors.Message(err))
			}
		})
	}
}

func TestValidateInputStrictVideoURL(t *testing.T) {
	v := NewValidator(Options{StrictVideoURL: true})

	if err := v.ValidateInput(models.VideoInput(nil, "https://example.com/v.mp4")); err == nil {
		t.Error("expected non-YouTube URL to be rejected")
	}
	if err := v.ValidateInput(models.VideoInput(nil, "https://youtu.be/dQw4w9WgXcQ")); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateYouTubeURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=x", false},
		{"https://m.youtube.com/watch?v=x", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", false},
		{"https://youtu.be/", true},
		{"https://www.youtube.com/watch", true},
		{"ftp://youtube.com/watch?v=x", true},
		{"not-a-url", true},
		{"https://notyoutube.com/watch?v=x", true},
	}

	for _, tt := range tests {
		err := ValidateYouTubeURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateYouTubeURL(%s) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
