// Package hangul repairs Korean text that was decoded under the wrong
// charset assumption. Party sites disagree about their encodings: some serve
// CP949 with a utf-8 Content-Type, some serve utf-8 bytes that an upstream
// layer already ran through latin1. Both failure modes are recoverable by
// re-interpreting the bytes and scoring the candidates for Hangul content.
package hangul

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
)

// decodeCandidate is one charset hypothesis for raw bytes. CP949 is the
// Windows superset of EUC-KR; x/text models both with the same codec, so
// the two legacy entries decode identically and the tie break keeps the
// first-listed name.
type decodeCandidate struct {
	name string
	enc  encoding.Encoding
}

var decodeCandidates = []decodeCandidate{
	{name: "utf-8", enc: nil},
	{name: "cp949", enc: korean.EUCKR},
	{name: "euc-kr", enc: korean.EUCKR},
}

var mojibakeSources = []decodeCandidate{
	{name: "latin1", enc: charmap.ISO8859_1},
	{name: "cp1252", enc: charmap.Windows1252},
}

// DecodeBytes decodes raw under each candidate encoding and returns the
// highest-scoring text. Score: hangul runes count ×10, replacement runes
// count ×−20. Ties break toward the first-tried candidate.
func DecodeBytes(raw []byte) string {
	best := ""
	bestScore := 0
	haveBest := false

	for _, cand := range decodeCandidates {
		text := decodeWith(raw, cand.enc)
		score := countHangul(text)*10 - countReplacements(text)*20
		if !haveBest || score > bestScore {
			best = text
			bestScore = score
			haveBest = true
		}
	}
	return best
}

// Recover repairs mojibake in already-decoded text. Text that contains
// Hangul is trusted and returned unchanged; suspect text is re-encoded
// under latin1 and cp1252 and re-decoded under each candidate charset. The
// winner maximizes (hangul, non-ASCII, -length) lexicographically. The
// original text is always among the candidates, so Recover degrades to a
// no-op and never fails.
func Recover(text string) string {
	if text == "" || ContainsHangul(text) {
		return text
	}

	best := text
	bestKey := scoreKey(text)

	for _, src := range mojibakeSources {
		raw, err := encodeWith(text, src.enc)
		if err != nil {
			continue
		}
		for _, dst := range decodeCandidates {
			cand := decodeWith(raw, dst.enc)
			if key := scoreKey(cand); keyLess(bestKey, key) {
				best = cand
				bestKey = key
			}
		}
	}
	return best
}

// ContainsHangul reports whether s has at least one syllable in the
// precomposed Hangul block (U+AC00..U+D7A3).
func ContainsHangul(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}

func countHangul(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			n++
		}
	}
	return n
}

func countReplacements(s string) int {
	n := 0
	for _, r := range s {
		if r == utf8.RuneError {
			n++
		}
	}
	return n
}

func countNonASCII(s string) int {
	n := 0
	for _, r := range s {
		if r > 127 {
			n++
		}
	}
	return n
}

// decodeWith decodes raw bytes, substituting U+FFFD for undecodable input.
// A nil encoding means utf-8.
func decodeWith(raw []byte, enc encoding.Encoding) string {
	if enc == nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		// x/text decoders substitute rather than error; this is belt and
		// suspenders for exotic transform failures.
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(out)
}

func encodeWith(text string, enc encoding.Encoding) ([]byte, error) {
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err == nil {
		return out, nil
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(text))
}

// scoreKey orders recovery candidates: more Hangul wins, then more
// non-ASCII, then shorter text.
func scoreKey(s string) [3]int {
	return [3]int{countHangul(s), countNonASCII(s), -len(s)}
}

func keyLess(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
