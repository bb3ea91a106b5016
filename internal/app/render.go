package app

import (
	"fmt"
	"io"
	"strings"

	"ragdash/internal/model"
)

const excerptLen = 160

// RenderTranscript writes a plain-text transcript. Relevance is shown as a
// whole percentage next to each source.
func RenderTranscript(w io.Writer, msgs []model.ChatMessage) error {
	for _, m := range msgs {
		line := fmt.Sprintf("[%s %s] %s", m.Timestamp.Format("15:04"), m.Role, m.Content)
		if m.Status == model.MessageFailed {
			line += "  (failed)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for i, src := range m.Sources {
			if _, err := fmt.Fprintf(w, "    %d. %s (%d%% match)\n       %s\n",
				i+1, src.DocumentName, src.Percent(), Truncate(oneLine(src.Excerpt), excerptLen)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Truncate shortens s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
