package colorize

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
)

func TestThreadCodeTokens(t *testing.T) {
	it, err := ThreadCode.Tokenise(nil, "DT_JMP,17,Loop ; -> #9")
	if err != nil {
		t.Fatalf("Tokenise failed: %v", err)
	}

	var got []chroma.TokenType
	for _, tok := range it.Tokens() {
		if tok.Type == chroma.Text && strings.TrimSpace(tok.Value) == "" {
			continue
		}
		got = append(got, tok.Type)
	}

	want := []chroma.TokenType{
		chroma.Keyword,
		chroma.Punctuation,
		chroma.LiteralNumberInteger,
		chroma.Punctuation,
		chroma.NameLabel,
		chroma.Comment,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLinePreservesText(t *testing.T) {
	t.Setenv("THREADGEN_NO_COLOR", "")

	lines := []string{
		"0007  DT_IMMI       ; label #4",
		"0012  9             ; -> #9 @17",
		"Thread: { 0, 2, 4 }",
	}
	for _, ln := range lines {
		got := Line(ln)
		if got == ln {
			t.Errorf("Line(%q) was not colorized", ln)
		}
		if plain := StripANSI(got); plain != ln {
			t.Errorf("StripANSI(Line(%q)) = %q", ln, plain)
		}
	}
}

func TestNoColor(t *testing.T) {
	t.Setenv("THREADGEN_NO_COLOR", "1")

	text := "0000  DT_END        ; label #0\n"
	if got := Listing(text); got != text {
		t.Errorf("Listing() = %q, want unchanged", got)
	}
	if got, _ := Code("DT_END"); got != "DT_END" {
		t.Errorf("Code() = %q, want unchanged", got)
	}
}

func TestStripANSI(t *testing.T) {
	if got := StripANSI("\033[38;2;79;79;79m0001\033[0m x"); got != "0001 x" {
		t.Errorf("StripANSI() = %q", got)
	}
}
