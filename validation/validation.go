package validation

import (
	"net/url"
	"strings"

	"github.com/nijaru/pitch-analyzer/errors"
	"github.com/nijaru/pitch-analyzer/models"
)

const (
	MsgTextRequired     = "Provide transcript text or upload a .txt file."
	MsgAudioRequired    = "Select an audio file to upload."
	MsgTextFileRequired = "Select a .txt file to upload."
	MsgPdfRequired      = "Select a .pdf file to upload."
	MsgVideoRequired    = "Provide a video file or YouTube link."
	MsgUnknownChannel   = "Unknown input channel."
)

type Options struct {
	// StrictVideoURL additionally requires the video link to be an http(s)
	// YouTube URL.
	StrictVideoURL bool
}

type Validator struct {
	opts Options
}

func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// ValidateInput checks the channel's precondition. The returned error is an
// *errors.AppError of kind validation whose message is shown to the user.
func (v *Validator) ValidateInput(in models.ChannelInput) error {
	const op = "Validator.ValidateInput"

	switch in.Kind {
	case models.ChannelText:
		if strings.TrimSpace(in.Text) == "" {
			return errors.Validation(op, MsgTextRequired)
		}
	case models.ChannelAudio:
		if in.File == nil {
			return errors.Validation(op, MsgAudioRequired)
		}
	case models.ChannelTextFile:
		if in.File == nil {
			return errors.Validation(op, MsgTextFileRequired)
		}
	case models.ChannelPdfFile:
		if in.File == nil {
			return errors.Validation(op, MsgPdfRequired)
		}
	case models.ChannelVideo:
		link := strings.TrimSpace(in.URL)
		if in.File == nil && link == "" {
			return errors.Validation(op, MsgVideoRequired)
		}
		if link != "" && v.opts.StrictVideoURL {
			if err := ValidateYouTubeURL(link); err != nil {
				return err
			}
		}
	default:
		return errors.Validation(op, MsgUnknownChannel)
	}
	return nil
}

// ValidateYouTubeURL checks that rawURL is an http(s) link to a YouTube video.
func ValidateYouTubeURL(rawURL string) error {
	const op = "ValidateYouTubeURL"

	parsedURL, err := url.ParseRequestURI(strings.TrimSpace(rawURL))
	if err != nil {
		return errors.Validation(op, "Invalid URL format")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.Validation(op, "URL must start with http or https")
	}
	if parsedURL.Host == "" {
		return errors.Validation(op, "URL must have a host")
	}

	host := strings.ToLower(parsedURL.Hostname())
	switch {
	case host == "youtu.be":
		if strings.Trim(parsedURL.Path, "/") == "" {
			return errors.Validation(op, "YouTube URL must contain a valid video ID")
		}
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if strings.HasPrefix(parsedURL.Path, "/shorts/") || strings.HasPrefix(parsedURL.Path, "/embed/") {
			return nil
		}
		if parsedURL.Query().Get("v") == "" {
			return errors.Validation(op, "YouTube URL must contain a valid video ID")
		}
	default:
		return errors.Validation(op, "Only YouTube URLs are supported")
	}
	return nil
}
