package pbs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// Event names reported by the outstream player.
const (
	EventImpression = "impression"
	EventLoaded     = "loaded"
	EventEnded      = "ended"
)

// OutstreamPlayer is the third-party outstream video library loaded from the renderer URL.
type OutstreamPlayer interface {
	RenderAd(opts OutstreamOptions, onEvent func(id string, eventName string))
}

// OutstreamOptions is the argument shape the outstream player expects.
type OutstreamOptions struct {
	TagID           int             `json:"tagId"`
	Sizes           []Size          `json:"sizes"`
	TargetID        string          `json:"targetId"`
	UUID            string          `json:"uuid"`
	AdResponse      json.RawMessage `json:"adResponse"`
	RendererOptions RendererConfig  `json:"rendererOptions"`
}

// DOM is the hosting page.
type DOM interface {
	Hide(elementID string) error
}

type RendererConfig struct {
	AdText string `json:"adText"`
}

// EventHandlers are called for player events. Nil handlers are skipped.
type EventHandlers struct {
	Impression func()
	Loaded     func()
	Ended      func()
}

// Renderer is an outstream renderer handle bound to one ad unit.
//
// Calls pushed before the renderer is loaded are queued and run, in order, by SetLoaded.
type Renderer struct {
	ID         string
	URL        string
	AdUnitCode string
	Config     RendererConfig

	mu       sync.Mutex
	loaded   bool
	queue    []func()
	render   func(bid *Bid)
	handlers EventHandlers
}

// InstallRenderer creates a renderer for the ad unit. The URL must be absolute or scheme-relative.
func InstallRenderer(id string, rendererURL string, adUnitCode string, config RendererConfig) (*Renderer, error) {
	if id == "" {
		return nil, errors.New("renderer id is empty")
	}
	parsed, err := url.Parse(rendererURL)
	if err != nil {
		return nil, fmt.Errorf("renderer url %q: %v", rendererURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("renderer url %q has no host", rendererURL)
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("renderer url %q has unsupported scheme %s", rendererURL, parsed.Scheme)
	}
	return &Renderer{
		ID:         id,
		URL:        rendererURL,
		AdUnitCode: adUnitCode,
		Config:     config,
	}, nil
}

// SetRender sets the func run when the page renders a bid.
func (r *Renderer) SetRender(fn func(bid *Bid)) error {
	if fn == nil {
		return errors.New("render func is nil")
	}
	r.mu.Lock()
	r.render = fn
	r.mu.Unlock()
	return nil
}

func (r *Renderer) SetEventHandlers(handlers EventHandlers) {
	r.mu.Lock()
	r.handlers = handlers
	r.mu.Unlock()
}

// Render is called by the hosting page once the bid wins.
func (r *Renderer) Render(bid *Bid) error {
	r.mu.Lock()
	fn := r.render
	r.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("renderer %s has no render func", r.ID)
	}
	fn(bid)
	return nil
}

// Push runs fn now if the renderer is loaded, otherwise queues it.
func (r *Renderer) Push(fn func()) {
	r.mu.Lock()
	if !r.loaded {
		r.queue = append(r.queue, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn()
}

// SetLoaded marks the player library as available and drains the queue.
func (r *Renderer) SetLoaded() {
	r.mu.Lock()
	r.loaded = true
	queued := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
}

func (r *Renderer) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Pending is the number of queued calls.
func (r *Renderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// HandleVideoEvent dispatches a player event to the matching handler. Unknown events are ignored.
func (r *Renderer) HandleVideoEvent(id string, eventName string) {
	r.mu.Lock()
	handlers := r.handlers
	r.mu.Unlock()

	var fn func()
	switch eventName {
	case EventImpression:
		fn = handlers.Impression
	case EventLoaded:
		fn = handlers.Loaded
	case EventEnded:
		fn = handlers.Ended
	}
	if fn != nil {
		fn()
	}
}
