package handler

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxChatRunes caps a chat line after sanitizing.
const MaxChatRunes = 280

var textPolicy = bluemonday.StrictPolicy()

// stripMarkup removes all HTML and returns plain text with entities decoded,
// since clients render text rather than HTML.
func stripMarkup(s string) string {
	decoded := html.UnescapeString(s)
	sanitized := textPolicy.Sanitize(decoded)
	return strings.TrimSpace(html.UnescapeString(sanitized))
}

// SanitizeChat cleans a chat line. An empty result means drop the message.
func SanitizeChat(text string) string {
	clean := stripMarkup(text)
	if utf8.RuneCountInString(clean) > MaxChatRunes {
		clean = string([]rune(clean)[:MaxChatRunes])
	}
	return clean
}

// SanitizeNickname strips markup from a nickname.
func SanitizeNickname(nickname string) string {
	return stripMarkup(nickname)
}
