package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxIdleRenderers bounds how many idle glamour renderers are kept per
// option set. A TermRenderer must not render concurrently, so each caller
// checks one out and hands it back.
const maxIdleRenderers = 4

type rendererKey struct {
	style    string
	width    int
	emoji    bool
	newlines bool
}

func keyFor(opts Options) rendererKey {
	style := opts.Style
	if style == "" {
		style = StyleDark
	}
	return rendererKey{
		style:    style,
		width:    opts.Width,
		emoji:    opts.EnableEmoji,
		newlines: opts.PreserveNewLines,
	}
}

// glamourCache holds idle renderers grouped by option set. Only the
// glamour engine goes through it.
type glamourCache struct {
	mu   sync.Mutex
	idle map[rendererKey][]*glamour.TermRenderer
}

var renderers = &glamourCache{idle: map[rendererKey][]*glamour.TermRenderer{}}

// acquire pops an idle renderer or builds a new one
func (c *glamourCache) acquire(opts Options) (*glamour.TermRenderer, error) {
	key := keyFor(opts)

	c.mu.Lock()
	if free := c.idle[key]; len(free) > 0 {
		r := free[len(free)-1]
		c.idle[key] = free[:len(free)-1]
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	return newGlamourRenderer(key)
}

// release returns r for reuse, dropping it when the option set is full
func (c *glamourCache) release(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	key := keyFor(opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.idle[key]) < maxIdleRenderers {
		c.idle[key] = append(c.idle[key], r)
	}
}

func (c *glamourCache) idleCount(opts Options) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idle[keyFor(opts)])
}

func newGlamourRenderer(key rendererKey) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(key.style),
		glamour.WithWordWrap(key.width),
	}
	if key.emoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if key.newlines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops every idle renderer
func ClearCache() {
	renderers.mu.Lock()
	renderers.idle = map[rendererKey][]*glamour.TermRenderer{}
	renderers.mu.Unlock()
}

// CacheSize returns the number of option sets with idle renderers
func CacheSize() int {
	renderers.mu.Lock()
	defer renderers.mu.Unlock()
	n := 0
	for _, free := range renderers.idle {
		if len(free) > 0 {
			n++
		}
	}
	return n
}
