package publish

import (
	"regexp"
	"strings"
)

// MaxChunkLen is the destination's per-block character ceiling.
const MaxChunkLen = 2000

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// Chunks turns body paragraphs into block-sized text chunks. Paragraphs
// within the ceiling pass through unchanged; longer ones are split at
// sentence boundaries, and a single oversized sentence is hard-sliced.
// Lengths are counted in runes, matching how the destination counts them.
func Chunks(paragraphs []string) []string {
	var out []string
	for _, p := range paragraphs {
		text := strings.TrimSpace(p)
		if text == "" {
			continue
		}
		if len([]rune(text)) <= MaxChunkLen {
			out = append(out, text)
			continue
		}
		out = append(out, splitLong(text)...)
	}
	return out
}

func splitLong(text string) []string {
	var chunks []string
	current := ""

	for _, sentence := range splitSentences(text) {
		runes := []rune(sentence)
		if len([]rune(current))+len(runes) <= MaxChunkLen {
			current += sentence
			continue
		}
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
		if len(runes) > MaxChunkLen {
			for i := 0; i < len(runes); i += MaxChunkLen {
				end := i + MaxChunkLen
				if end > len(runes) {
					end = len(runes)
				}
				chunks = append(chunks, strings.TrimSpace(string(runes[i:end])))
			}
			current = ""
		} else {
			current = sentence
		}
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	var out []string
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitSentences cuts text after each sentence terminator, keeping the
// terminator and its trailing whitespace with the sentence.
func splitSentences(text string) []string {
	locs := sentenceEndRe.FindAllStringIndex(text, -1)
	var out []string
	prev := 0
	for _, loc := range locs {
		out = append(out, text[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}
