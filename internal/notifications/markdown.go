package notifications

import "strings"

// markdownV2Specials are the characters Telegram requires escaped in
// MarkdownV2 text outside of formatting entities.
const markdownV2Specials = `\_*[]()~` + "`" + `>#+-=|{}.!`

// escapeMarkdownV2 escapes s for inclusion in a MarkdownV2 message body.
func escapeMarkdownV2(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Specials, r) {
			builder.WriteByte('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
