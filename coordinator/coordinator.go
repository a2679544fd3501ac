package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/nijaru/pitch-analyzer/client"
	"github.com/nijaru/pitch-analyzer/db"
	apperrors "github.com/nijaru/pitch-analyzer/errors"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/nijaru/pitch-analyzer/validation"
	"github.com/sirupsen/logrus"
)

// Recorder receives every submission attempt. db.Journal implements it.
type Recorder interface {
	Start(ctx context.Context, channel models.ChannelKind) (string, error)
	Finish(ctx context.Context, id, outcome, message string) error
	Invalid(ctx context.Context, channel models.ChannelKind, message string) error
}

type Options struct {
	// RequestTimeout bounds each dispatched request. Zero means no bound.
	RequestTimeout time.Duration
	// RejectStale drops a completion when a newer dispatch of the same group
	// has started since. Off by default: the last completion wins.
	RejectStale bool
	Validator   *validation.Validator
	Recorder    Recorder
	Logger      *logrus.Logger
}

// Loading holds one flag per concurrency group.
type Loading struct {
	General bool
	Video   bool
}

func (l Loading) Any() bool { return l.General || l.Video }

// Inputs is the per-channel input state edited by a front end.
type Inputs struct {
	Text      string
	Audio     *models.Blob
	TextFile  *models.Blob
	PdfFile   *models.Blob
	VideoFile *models.Blob
	VideoURL  string
}

// Snapshot is an immutable view of the coordinator for display.
type Snapshot struct {
	Result   *models.AnalysisResult
	Error    string
	Loading  Loading
	Channels map[models.ChannelKind]models.ChannelState
	Inputs   Inputs
	BaseURL  string
}

// Coordinator owns the five channels and the shared result and error slots.
// Submissions run on their own goroutines; every state transition happens
// under one mutex.
type Coordinator struct {
	analyzer  client.Analyzer
	validator *validation.Validator
	recorder  Recorder
	logger    *logrus.Logger
	opts      Options

	mu       sync.Mutex
	results  Slot[models.AnalysisResult]
	errors   Slot[string]
	pending  map[models.Group]int
	seq      map[models.Group]uint64
	channels map[models.ChannelKind]models.ChannelState
	inputs   Inputs
	subs     map[int]chan Snapshot
	nextSub  int

	wg sync.WaitGroup
}

func New(analyzer client.Analyzer, opts Options) *Coordinator {
	if opts.Validator == nil {
		opts.Validator = validation.NewValidator(validation.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	c := &Coordinator{
		analyzer:  analyzer,
		validator: opts.Validator,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		opts:      opts,
		pending:   make(map[models.Group]int),
		seq:       make(map[models.Group]uint64),
		channels:  make(map[models.ChannelKind]models.ChannelState),
		subs:      make(map[int]chan Snapshot),
	}
	for _, kind := range models.Channels {
		c.channels[kind] = models.Idle()
	}
	return c
}

// Submit validates in and, if valid, dispatches exactly one request for it.
// It does not block on the network; the returned channel is closed once the
// attempt is resolved. Overlapping submissions are not rejected.
func (c *Coordinator) Submit(ctx context.Context, in models.ChannelInput) <-chan struct{} {
	done := make(chan struct{})
	logger := c.logger.WithField("channel", in.Kind)

	if err := c.validator.ValidateInput(in); err != nil {
		msg := apperrors.Message(err)
		logger.WithField("reason", msg).Info("Submission rejected")

		c.mu.Lock()
		c.errors.Set(msg)
		if in.Kind.Valid() {
			c.channels[in.Kind] = models.Failed(msg, time.Now())
		}
		c.publishLocked()
		c.mu.Unlock()

		if c.recorder != nil && in.Kind.Valid() {
			if err := c.recorder.Invalid(ctx, in.Kind, msg); err != nil {
				logger.WithError(err).Warn("Failed to record rejected submission")
			}
		}
		close(done)
		return done
	}

	group := in.Kind.Group()

	c.mu.Lock()
	c.errors.Clear()
	c.results.Clear()
	c.pending[group]++
	c.seq[group]++
	seq := c.seq[group]
	c.channels[in.Kind] = models.Pending(time.Now())
	c.publishLocked()
	c.mu.Unlock()

	journalID := ""
	if c.recorder != nil {
		id, err := c.recorder.Start(ctx, in.Kind)
		if err != nil {
			logger.WithError(err).Warn("Failed to record submission")
		}
		journalID = id
	}

	// The request outlives the caller's context: submissions are never cancelled.
	reqCtx := context.WithoutCancel(ctx)

	logger.WithField("seq", seq).Info("Submission dispatched")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.dispatch(reqCtx, in, seq, journalID)
	}()
	return done
}

func (c *Coordinator) dispatch(ctx context.Context, in models.ChannelInput, seq uint64, journalID string) {
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.analyzer.Analyze(ctx, models.NewSubmissionRequest(in))
	c.complete(in.Kind, seq, result, err)

	logger := c.logger.WithFields(logrus.Fields{
		"channel":  in.Kind,
		"seq":      seq,
		"duration": time.Since(start),
	})

	outcome, msg := db.OutcomeSucceeded, ""
	if err != nil {
		outcome, msg = db.OutcomeFailed, apperrors.Message(err)
		logger.WithError(err).WithField("kind", apperrors.KindOf(err)).Warn("Submission failed")
	} else {
		logger.WithField("shape", result.Shape).Info("Submission succeeded")
	}

	if c.recorder != nil && journalID != "" {
		if err := c.recorder.Finish(context.WithoutCancel(ctx), journalID, outcome, msg); err != nil {
			logger.WithError(err).Warn("Failed to record submission outcome")
		}
	}
}

// complete applies one resolved request. A success fills the result slot and
// empties the error slot, a failure does the opposite, so a completion never
// leaves both or neither set.
func (c *Coordinator) complete(kind models.ChannelKind, seq uint64, result models.AnalysisResult, err error) {
	group := kind.Group()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[group]--
	stale := c.opts.RejectStale && seq != c.seq[group]

	if err != nil {
		msg := apperrors.Message(err)
		c.channels[kind] = models.Failed(msg, now)
		if !stale {
			c.results.Clear()
			c.errors.Set(msg)
		}
	} else {
		c.channels[kind] = models.Succeeded(result, now)
		if !stale {
			c.errors.Clear()
			c.results.Set(result)
		}
		if kind == models.ChannelVideo {
			c.inputs.VideoFile = nil
			c.inputs.VideoURL = ""
		}
	}

	if stale {
		c.logger.WithFields(logrus.Fields{
			"channel": kind,
			"seq":     seq,
			"latest":  c.seq[group],
		}).Info("Dropped completion of superseded submission")
	}
	c.publishLocked()
}

// SubmitChannel submits the input currently held for kind.
func (c *Coordinator) SubmitChannel(ctx context.Context, kind models.ChannelKind) <-chan struct{} {
	c.mu.Lock()
	in := c.inputFor(kind)
	c.mu.Unlock()
	return c.Submit(ctx, in)
}

func (c *Coordinator) inputFor(kind models.ChannelKind) models.ChannelInput {
	switch kind {
	case models.ChannelText:
		return models.TextInput(c.inputs.Text)
	case models.ChannelAudio:
		return models.AudioInput(c.inputs.Audio)
	case models.ChannelTextFile:
		return models.TextFileInput(c.inputs.TextFile)
	case models.ChannelPdfFile:
		return models.PdfInput(c.inputs.PdfFile)
	case models.ChannelVideo:
		return models.VideoInput(c.inputs.VideoFile, c.inputs.VideoURL)
	default:
		return models.ChannelInput{Kind: kind}
	}
}

// Wait blocks until every dispatched submission has resolved.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) BaseURL() string {
	if c.analyzer == nil {
		return ""
	}
	return c.analyzer.BaseURL()
}
