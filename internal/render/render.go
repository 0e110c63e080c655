package render

import "strings"

// Markdown renders markdown content for terminal display using the engine
// selected in opts. The line engine never fails; glamour errors are returned.
func Markdown(content string, opts Options) (string, error) {
	if opts.Engine != EngineGlamour {
		return Lines(content, opts), nil
	}

	renderer, err := renderers.acquire(opts)
	if err != nil {
		return "", err
	}
	defer renderers.release(opts, renderer)

	out, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}
