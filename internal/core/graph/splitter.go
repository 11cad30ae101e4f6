package graph

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SentenceSplitter cuts text into chunks of at most ChunkSize runes, breaking
// on sentence boundaries where possible. Consecutive chunks share up to
// Overlap runes of whole trailing sentences.
type SentenceSplitter struct {
	ChunkSize int
	Overlap   int
}

func (s SentenceSplitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = 1024
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var pieces []string
	for _, sent := range sentences(text) {
		if utf8.RuneCountInString(sent) > size {
			pieces = append(pieces, hardSplit(sent, size)...)
			continue
		}
		pieces = append(pieces, sent)
	}

	var (
		chunks []string
		cur    []string
	)
	for _, p := range pieces {
		if len(cur) > 0 && joinedLen(cur)+1+utf8.RuneCountInString(p) > size {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = tail(cur, overlap)
			for len(cur) > 0 && joinedLen(cur)+1+utf8.RuneCountInString(p) > size {
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// sentences splits after . ! ? followed by whitespace, and at blank lines.
func sentences(text string) []string {
	var (
		out   []string
		start int
	)
	emit := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i, r := range text {
		_, width := utf8.DecodeRuneInString(text[i:])
		end := i + width
		atEnd := end >= len(text)
		next, _ := utf8.DecodeRuneInString(text[end:])
		switch {
		case (r == '.' || r == '!' || r == '?') && (atEnd || unicode.IsSpace(next)):
			emit(end)
		case r == '\n' && !atEnd && next == '\n':
			emit(end)
		}
	}
	emit(len(text))
	return out
}

func hardSplit(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// tail returns the trailing sentences of cur that fit in limit runes.
func tail(cur []string, limit int) []string {
	n := 0
	i := len(cur)
	for i > 0 {
		l := utf8.RuneCountInString(cur[i-1])
		if n > 0 {
			l++
		}
		if n+l > limit {
			break
		}
		n += l
		i--
	}
	return append([]string(nil), cur[i:]...)
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += utf8.RuneCountInString(p)
	}
	return n
}
