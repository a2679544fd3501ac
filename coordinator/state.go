package coordinator

import (
	"fmt"
	"maps"

	"github.com/nijaru/pitch-analyzer/models"
)

func (c *Coordinator) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs.Text = text
	c.publishLocked()
}

// ClearText empties the text field and the result slot.
func (c *Coordinator) ClearText() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs.Text = ""
	c.results.Clear()
	c.publishLocked()
}

// SelectFile stores the file for a file channel. A nil blob deselects it.
func (c *Coordinator) SelectFile(kind models.ChannelKind, blob *models.Blob) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case models.ChannelAudio:
		c.inputs.Audio = blob
	case models.ChannelTextFile:
		c.inputs.TextFile = blob
	case models.ChannelPdfFile:
		c.inputs.PdfFile = blob
	case models.ChannelVideo:
		c.inputs.VideoFile = blob
	default:
		return fmt.Errorf("channel %q does not take a file", kind)
	}
	c.publishLocked()
	return nil
}

func (c *Coordinator) SetVideoURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs.VideoURL = url
	c.publishLocked()
}

func (c *Coordinator) Loading() Loading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingLocked()
}

func (c *Coordinator) loadingLocked() Loading {
	return Loading{
		General: c.pending[models.GroupGeneral] > 0,
		Video:   c.pending[models.GroupVideo] > 0,
	}
}

// Result returns the current result slot.
func (c *Coordinator) Result() (models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results.Get()
}

// Error returns the current error slot.
func (c *Coordinator) Error() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Get()
}

func (c *Coordinator) ChannelState(kind models.ChannelKind) models.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[kind]
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Loading:  c.loadingLocked(),
		Channels: maps.Clone(c.channels),
		Inputs:   c.inputs,
		BaseURL:  c.BaseURL(),
	}
	if result, ok := c.results.Get(); ok {
		snap.Result = &result
	}
	if msg, ok := c.errors.Get(); ok {
		snap.Error = msg
	}
	return snap
}

// Subscribe returns a channel of snapshots published on every state change,
// starting with the current one. A slow reader only sees the latest snapshot.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- c.snapshotLocked()
	c.subs[id] = ch

	var once bool
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Coordinator) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
