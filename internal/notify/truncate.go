package notify

// PreviewLimit characters kept in a message preview.
const PreviewLimit = 50

// Ellipsis appended to a truncated preview.
const Ellipsis = "..."

// Truncate cuts s to limit characters and appends Ellipsis when something was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		limit = PreviewLimit
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}
