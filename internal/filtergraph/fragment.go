// Package filtergraph contains pure builders that turn typed composition
// parameters into textual ffmpeg filter-graph fragments. Builders never do
// I/O; composing fragments into one -filter_complex string happens at a
// single Join call site.
package filtergraph

import "strings"

// Fragment is one immutable piece of a filter graph plus the label its
// output stream is bound to.
type Fragment struct {
	Text        string
	OutputLabel string
}

// Join combines fragments into one filter-graph string. Empty fragments are
// skipped so optional stages (cut transitions, no overlays) compose cleanly.
func Join(fragments ...Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, ";")
}

// escapeText escapes text for ffmpeg filter arguments so user-supplied
// strings cannot break out of the filter expression.
func escapeText(text string) string {
	escaped := strings.ReplaceAll(text, "\\", "\\\\\\\\")
	escaped = strings.ReplaceAll(escaped, "'", "'\\''")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	return escaped
}
