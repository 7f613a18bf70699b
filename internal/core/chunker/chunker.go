package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markdave123-py/vectora/internal/models"
)

// Strategy selects how a document is split into chunks.
type Strategy string

const (
	StrategyFixed     Strategy = "fixed"
	StrategySemantic  Strategy = "semantic"
	StrategyRecursive Strategy = "recursive"
	StrategySentence  Strategy = "sentence"
	StrategyParagraph Strategy = "paragraph"
)

// Options tunes one chunking call.
//
// ChunkSize:    target chunk length in characters (e.g., 1000).
// ChunkOverlap: characters duplicated across adjacent chunks for the
//               strategies that carry context over a boundary.
// Separators:   split candidates for the recursive strategy, tried in
//               priority order; nil applies the defaults below.
type Options struct {
	Strategy     Strategy
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// DefaultSeparators is the recursive strategy's priority order:
// paragraph break, line break, sentence end, clause end, space.
var DefaultSeparators = []string{"\n\n", "\n", ". ", ", ", " "}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// Chunk splits text into ordered, position-tagged chunks using the
// configured strategy. Positions index into the original text; indexes
// are 0-based and assigned in emission order.
func Chunk(text, documentID string, opts Options) ([]models.ProcessedChunk, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 2
	}

	var spans []span
	switch opts.Strategy {
	case StrategyFixed:
		spans = chunkFixed(text, opts.ChunkSize, opts.ChunkOverlap)
	case StrategySemantic, "":
		spans = chunkSemantic(text, opts.ChunkSize, opts.ChunkOverlap)
	case StrategyRecursive:
		seps := opts.Separators
		if len(seps) == 0 {
			seps = DefaultSeparators
		}
		spans = chunkRecursive(text, 0, opts.ChunkSize, seps)
	case StrategySentence:
		spans = chunkSentence(text, opts.ChunkSize)
	case StrategyParagraph:
		spans = chunkParagraph(text)
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", opts.Strategy)
	}

	chunks := make([]models.ProcessedChunk, 0, len(spans))
	for _, s := range spans {
		if strings.TrimSpace(s.content) == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, models.ProcessedChunk{
			ID:      fmt.Sprintf("%s_chunk_%d", documentID, idx),
			Content: s.content,
			Index:   idx,
			Metadata: models.ChunkMetadata{
				Source:   documentID,
				Position: models.ChunkPosition{Start: s.start, End: s.end},
			},
		})
	}
	return chunks, nil
}

// span is an emitted chunk before it is wrapped in a ProcessedChunk.
// start/end are offsets into the original text; content may carry
// duplicated overlap text, so len(content) can exceed end-start.
type span struct {
	content string
	start   int
	end     int
}

// chunkFixed slides a window of chunkSize characters, advancing by
// chunkSize-overlap. The last chunk may be shorter.
func chunkFixed(text string, size, overlap int) []span {
	step := size - overlap
	if step < 1 {
		step = 1
	}
	var out []span
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, span{content: text[start:end], start: start, end: end})
		if end == len(text) {
			break
		}
	}
	return out
}

// paragraph is one blank-line-delimited block with its trimmed offsets.
type paragraph struct {
	text  string
	start int
	end   int
}

func splitParagraphs(text string) []paragraph {
	var out []paragraph
	prev := 0
	bounds := paragraphRe.FindAllStringIndex(text, -1)
	emit := func(raw string, base int) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return
		}
		lead := strings.Index(raw, trimmed)
		out = append(out, paragraph{
			text:  trimmed,
			start: base + lead,
			end:   base + lead + len(trimmed),
		})
	}
	for _, b := range bounds {
		emit(text[prev:b[0]], prev)
		prev = b[1]
	}
	emit(text[prev:], prev)
	return out
}

// chunkSemantic accumulates whole paragraphs until the next one would
// push the chunk past size, then emits and seeds the following chunk
// with the trailing overlap characters of the previous one. A single
// paragraph longer than size is never split, so such a chunk (and any
// chunk carrying an overlap seed) may exceed size.
func chunkSemantic(text string, size, overlap int) []span {
	paras := splitParagraphs(text)
	if len(paras) == 0 {
		return nil
	}

	var (
		out      []span
		cur      strings.Builder
		seedLen  int
		curStart = paras[0].start
		curEnd   = paras[0].start
	)

	flush := func(nextStart int) {
		if cur.Len() == 0 {
			return
		}
		content := cur.String()
		out = append(out, span{content: content, start: curStart, end: curEnd})
		cur.Reset()
		if overlap > 0 && len(content) > overlap {
			seed := content[len(content)-overlap:]
			cur.WriteString(seed)
			seedLen = len(seed)
		} else {
			seedLen = 0
		}
		curStart = nextStart - seedLen
		if curStart < 0 {
			curStart = 0
		}
	}

	for _, p := range paras {
		if cur.Len() > seedLen && cur.Len()+2+len(p.text) > size {
			flush(p.start)
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p.text)
		curEnd = p.end
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, span{content: cur.String(), start: curStart, end: curEnd})
	}
	return out
}

// chunkRecursive splits a region on the first separator, then recurses
// into any piece still exceeding size with the remaining separators.
// When separators run out an oversized piece is emitted as-is.
func chunkRecursive(text string, base, size int, seps []string) []span {
	if len(text) <= size {
		return []span{{content: text, start: base, end: base + len(text)}}
	}
	if len(seps) == 0 {
		return []span{{content: text, start: base, end: base + len(text)}}
	}

	sep, rest := seps[0], seps[1:]
	var out []span
	offset := 0
	for offset <= len(text) {
		next := strings.Index(text[offset:], sep)
		var piece string
		var pieceStart int
		if next < 0 {
			piece = text[offset:]
			pieceStart = offset
			offset = len(text) + 1
		} else {
			piece = text[offset : offset+next]
			pieceStart = offset
			offset += next + len(sep)
		}
		if piece == "" {
			continue
		}
		if len(piece) > size {
			out = append(out, chunkRecursive(piece, base+pieceStart, size, rest)...)
		} else {
			out = append(out, span{content: piece, start: base + pieceStart, end: base + pieceStart + len(piece)})
		}
	}
	return out
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+(\s+|$)`)

// sentence is one terminal-punctuation-delimited run with offsets.
type sentence struct {
	text  string
	start int
	end   int
}

func splitSentences(text string) []sentence {
	var out []sentence
	prev := 0
	for _, b := range sentenceEndRe.FindAllStringIndex(text, -1) {
		raw := text[prev:b[1]]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			out = append(out, sentence{text: trimmed, start: prev + lead, end: prev + lead + len(trimmed)})
		}
		prev = b[1]
	}
	if tail := strings.TrimSpace(text[prev:]); tail != "" {
		lead := strings.Index(text[prev:], tail)
		out = append(out, sentence{text: tail, start: prev + lead, end: prev + lead + len(tail)})
	}
	return out
}

// chunkSentence accumulates whole sentences into chunks bounded by size,
// with no overlap carry-over.
func chunkSentence(text string, size int) []span {
	sents := splitSentences(text)
	if len(sents) == 0 {
		return nil
	}

	var (
		out      []span
		cur      strings.Builder
		curStart = sents[0].start
		curEnd   = sents[0].start
	)
	for _, s := range sents {
		if cur.Len() > 0 && cur.Len()+1+len(s.text) > size {
			out = append(out, span{content: cur.String(), start: curStart, end: curEnd})
			cur.Reset()
			curStart = s.start
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(s.text)
		curEnd = s.end
	}
	if cur.Len() > 0 {
		out = append(out, span{content: cur.String(), start: curStart, end: curEnd})
	}
	return out
}

// chunkParagraph emits one chunk per blank-line-delimited paragraph,
// ignoring size entirely.
func chunkParagraph(text string) []span {
	paras := splitParagraphs(text)
	out := make([]span, 0, len(paras))
	for _, p := range paras {
		out = append(out, span{content: p.text, start: p.start, end: p.end})
	}
	return out
}

// EstimateTokens is a cheap token estimator (~4 chars ≈ 1 token).
func EstimateTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
