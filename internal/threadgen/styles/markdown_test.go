package styles_test

import (
	"strings"
	"testing"

	"threadgen/internal/threadgen/styles"
	"threadgen/internal/ui/colorize"
)

func TestMarkdownRenderer(t *testing.T) {
	r, err := styles.GetMarkdownRenderer(80)
	if err != nil {
		t.Fatalf("GetMarkdownRenderer failed: %v", err)
	}
	out, err := r.Render("# Threaded program\n\n- **Labels:** 3\n")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	plain := colorize.StripANSI(out)
	for _, want := range []string{"Threaded program", "Labels:", "3"} {
		if !strings.Contains(plain, want) {
			t.Errorf("rendered output missing %q:\n%s", want, plain)
		}
	}
}
