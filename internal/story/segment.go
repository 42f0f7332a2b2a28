// Package story splits raw story prose into per-panel scene chunks and
// pulls quoted dialogue out of them. Everything here is a total function
// over arbitrary text: no input, including the empty string, produces an
// error or a panic.
package story

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	quoted      = regexp.MustCompile(`"[^"]+"`)
)

// Segment splits story into exactly parts chunks of whole sentences.
// Sentences are split on runs of sentence-terminal punctuation, blank
// fragments are dropped, and the remainder is partitioned into contiguous
// windows of ceil(len/parts) sentences joined with ". ". Windows left empty
// because the story has fewer sentences than parts become "Scene N"
// placeholders, so the result always has length parts.
func Segment(story string, parts int) []string {
	if parts < 1 {
		return nil
	}

	var sentences []string
	for _, s := range sentenceEnd.Split(story, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}

	chunkSize := (len(sentences) + parts - 1) / parts
	chunks := make([]string, 0, parts)
	for i := 0; i < parts; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start > len(sentences) {
			start = len(sentences)
		}
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := strings.TrimSpace(strings.Join(trimAll(sentences[start:end]), ". "))
		if chunk == "" {
			chunk = fmt.Sprintf("Scene %d", i+1)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// ExtractDialogue returns up to the first two double-quoted substrings of
// text, quotes stripped, in order of appearance. It is a best-effort
// heuristic: escaped quotes, single quotes and dialogue spanning paragraphs
// are not recognized.
func ExtractDialogue(text string) []string {
	matches := quoted.FindAllString(text, -1)
	if len(matches) > 2 {
		matches = matches[:2]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.Trim(m, `"`))
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
