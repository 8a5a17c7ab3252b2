// Package listing renders a threaded program as one annotated line per
// token, for terminal output, markdown reports and the interactive viewer.
package listing

import (
	"fmt"
	"strings"

	"threadgen/internal/thread"
)

// Line is a single annotated token.
type Line struct {
	Pos       int    // position in the original stream
	Token     string // original token text
	Value     string // token as it appears in the rewritten stream
	Rank      int    // label rank, or -1
	Target    int    // resolved rank for jump targets, or -1
	TargetPos int    // label position Target refers to, or -1
}

// IsLabel reports whether the token is a label.
func (l Line) IsLabel() bool { return l.Rank >= 0 }

// IsTarget reports whether the token was rewritten to a rank.
func (l Line) IsTarget() bool { return l.Target >= 0 }

// Comment returns the annotation for the line, or "".
func (l Line) Comment() string {
	switch {
	case l.IsLabel() && l.IsTarget():
		return fmt.Sprintf("label #%d, -> #%d @%d", l.Rank, l.Target, l.TargetPos)
	case l.IsLabel():
		return fmt.Sprintf("label #%d", l.Rank)
	case l.IsTarget():
		return fmt.Sprintf("-> #%d @%d", l.Target, l.TargetPos)
	}
	return ""
}

// Text formats the line as "0007  DT_IMMI       ; label #4".
func (l Line) Text() string {
	s := fmt.Sprintf("%04d  %-14s", l.Pos, l.Value)
	if c := l.Comment(); c != "" {
		s += "; " + c
	}
	return strings.TrimRight(s, " ")
}

// Listing is a program in stream order.
type Listing []Line

// Build annotates every token of res.
func Build(res *thread.Result) Listing {
	out := make(Listing, len(res.Tokens))
	for i, tok := range res.Tokens {
		ln := Line{Pos: i, Token: tok, Value: tok, Rank: -1, Target: -1, TargetPos: -1}
		if r, ok := res.Labels.Rank(i); ok {
			ln.Rank = r
		}
		if it := res.Stream[i]; it.Resolved {
			ln.Value = it.String()
			ln.Target = it.Rank
			ln.TargetPos = res.Labels.Positions[it.Rank]
		}
		out[i] = ln
	}
	return out
}

// Text renders the listing, one line per token.
func (l Listing) Text() string {
	var b strings.Builder
	for _, ln := range l {
		b.WriteString(ln.Text())
		b.WriteByte('\n')
	}
	return b.String()
}

// Markdown renders the listing as a markdown document with a summary and
// a table.
func (l Listing) Markdown(title string) string {
	var b strings.Builder
	labels, targets := 0, 0
	for _, ln := range l {
		if ln.IsLabel() {
			labels++
		}
		if ln.IsTarget() {
			targets++
		}
	}

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Tokens:** %d\n", len(l))
	fmt.Fprintf(&b, "- **Labels:** %d\n", labels)
	fmt.Fprintf(&b, "- **Jump targets:** %d\n\n", targets)

	b.WriteString("| Pos | Token | Rewritten | Label | Target |\n")
	b.WriteString("|----:|-------|-----------|------:|--------|\n")
	for _, ln := range l {
		rank, target := "", ""
		if ln.IsLabel() {
			rank = fmt.Sprintf("#%d", ln.Rank)
		}
		if ln.IsTarget() {
			target = fmt.Sprintf("#%d @%d", ln.Target, ln.TargetPos)
		}
		fmt.Fprintf(&b, "| %d | `%s` | `%s` | %s | %s |\n",
			ln.Pos, escapeBackticks(ln.Token), escapeBackticks(ln.Value), rank, target)
	}
	return b.String()
}

func escapeBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
