package telegram

import "unicode/utf16"

// MaxMessageLength is the longest text a single chat message may carry,
// in UTF-16 code units.
const MaxMessageLength = 4096

// SplitMessage cuts text into chunks of at most limit UTF-16 code units, the
// unit the Bot API counts (characters outside the BMP, such as most emoji,
// take two). Chunks are contiguous and, for valid UTF-8, concatenate back to
// text. Where a window has a newline in its second half the chunk ends just
// after it, so paragraphs are not split mid-line. A single rune wider than
// limit gets a chunk of its own. Empty text yields no chunks. A non-positive
// limit means MaxMessageLength.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = MaxMessageLength
	}

	runes := []rune(text)
	if utf16Len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		units, end, cut := 0, 0, 0
		for end < len(runes) {
			n := runeUnits(runes[end])
			if units+n > limit {
				break
			}
			units += n
			end++
			if runes[end-1] == '\n' && units > limit/2 {
				cut = end
			}
		}
		if end == len(runes) {
			chunks = append(chunks, string(runes))
			break
		}
		if cut == 0 {
			cut = max(end, 1)
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += runeUnits(r)
	}
	return n
}

// runeUnits is the UTF-16 width of r. Invalid runes are sent as U+FFFD.
func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
