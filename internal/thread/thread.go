// Package thread converts a comma-separated DT_* instruction stream into
// its threaded form: a table of label positions and a stream in which
// jump-target operands are replaced by ranks into that table.
package thread

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Tokenize splits src on commas. Tokens are not trimmed.
func Tokenize(src string) []string {
	return strings.Split(src, ",")
}

// IsLabelToken reports whether tok marks a jump target. A token is a label
// when its first byte is an uppercase ASCII letter, so every DT_* mnemonic
// counts as a label as well.
func IsLabelToken(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c >= 'A' && c <= 'Z'
}

// LabelTable holds label positions in scan order and the rank of each one.
type LabelTable struct {
	Positions []int
	Ranks     map[int]int
}

// Len returns the number of labels.
func (t LabelTable) Len() int { return len(t.Positions) }

// Rank returns the rank of the label at pos.
func (t LabelTable) Rank(pos int) (int, bool) {
	r, ok := t.Ranks[pos]
	return r, ok
}

// DiscoverLabels records the position and rank of every label token.
func DiscoverLabels(tokens []string) LabelTable {
	t := LabelTable{Ranks: make(map[int]int)}
	for i, tok := range tokens {
		if !IsLabelToken(tok) {
			continue
		}
		t.Positions = append(t.Positions, i)
		t.Ranks[i] = len(t.Positions) - 1
	}
	return t
}

// Item is one slot of the rewritten stream.
type Item struct {
	Token    string
	Rank     int
	Resolved bool // Token was a jump target and Rank replaces it
}

func (it Item) String() string {
	if it.Resolved {
		return strconv.Itoa(it.Rank)
	}
	return it.Token
}

// Value returns the rank as an int for resolved items and the token otherwise.
func (it Item) Value() any {
	if it.Resolved {
		return it.Rank
	}
	return it.Token
}

// Rewrite walks tokens and replaces every jump-target operand selected by p
// with the rank of the label at the position it names.
func Rewrite(tokens []string, labels LabelTable, p Policy) ([]Item, error) {
	out := make([]Item, 0, len(tokens))
	for i, tok := range tokens {
		if !p.IsTarget(tokens, i) {
			out = append(out, Item{Token: tok})
			continue
		}

		// Surrounding whitespace is allowed in the number, not in the token.
		pos, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, &RewriteError{Pos: i, Token: tok, Err: ErrBadOperand, cause: err}
		}
		rank, ok := labels.Rank(pos)
		if !ok {
			return nil, &RewriteError{Pos: i, Token: tok, Err: ErrUnknownLabel}
		}
		out = append(out, Item{Token: tok, Rank: rank, Resolved: true})
	}
	return out, nil
}

// Result is the threaded form of one program.
type Result struct {
	Tokens []string
	Labels LabelTable
	Stream []Item
}

// Thread tokenizes src, discovers its labels and rewrites its jump targets.
func Thread(src string, p Policy) (*Result, error) {
	tokens := Tokenize(src)
	labels := DiscoverLabels(tokens)
	slog.Debug("Discovered labels", "tokens", len(tokens), "labels", labels.Len())

	stream, err := Rewrite(tokens, labels, p)
	if err != nil {
		return nil, err
	}
	return &Result{Tokens: tokens, Labels: labels, Stream: stream}, nil
}

// ThreadValues returns the label positions as strings.
func (r *Result) ThreadValues() []string {
	vals := make([]string, len(r.Labels.Positions))
	for i, p := range r.Labels.Positions {
		vals[i] = strconv.Itoa(p)
	}
	return vals
}

// StreamValues returns the rewritten stream as strings.
func (r *Result) StreamValues() []string {
	vals := make([]string, len(r.Stream))
	for i, it := range r.Stream {
		vals[i] = it.String()
	}
	return vals
}

// Targets returns the number of resolved slots in the stream.
func (r *Result) Targets() int {
	n := 0
	for _, it := range r.Stream {
		if it.Resolved {
			n++
		}
	}
	return n
}

// WriteTo writes the thread line followed by the instruments line.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	return r.WriteLabeled(w, DefaultThreadLabel, DefaultStreamLabel)
}

// WriteLabeled is WriteTo with caller-chosen line labels.
func (r *Result) WriteLabeled(w io.Writer, threadLabel, streamLabel string) (int64, error) {
	s := Format(threadLabel, r.ThreadValues()) + "\n" +
		Format(streamLabel, r.StreamValues()) + "\n"
	n, err := io.WriteString(w, s)
	return int64(n), err
}
