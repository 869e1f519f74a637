package bot

import "strings"

// escapeMarkdown escapes the four characters Telegram Markdown V1 treats as
// formatting, so user-supplied text cannot break a reply.
func escapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case '_', '*', '`', '[':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
