package relay

// defaultOpenlineCode stands in when the widget does not report an open line.
const defaultOpenlineCode = "default"

// SessionKey derives the stable session identity for one visitor
// conversation from the open-line code and the page URL. The same pair
// always yields the same key, so every message from one widget session
// lands in the same conversation.
func SessionKey(openlineCode, pageURL string) string {
	if openlineCode == "" {
		openlineCode = defaultOpenlineCode
	}
	return openlineCode + "_" + pageURL
}
