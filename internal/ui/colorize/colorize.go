package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether colors are allowed. THREADGEN_NO_COLOR disables
// them.
func Enabled() bool {
	return os.Getenv("THREADGEN_NO_COLOR") == ""
}

// getStyle returns the listing style with fallbacks
func getStyle() *chroma.Style {
	for _, name := range []string{"thread-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Code highlights program text with the threadcode lexer.
func Code(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	iterator, err := ThreadCode.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// Line colorizes a single listing line while preserving its layout.
// Format: "0007  DT_IMMI        ; label #4"
func Line(line string) string {
	if !Enabled() {
		return line
	}

	addr, rest, ok := strings.Cut(line, " ")
	if !ok || !isDecimal(addr) {
		return colorizeFullLine(line)
	}

	// Address in gray (79, 79, 79)
	return fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m %s", addr, colorizeFullLine(rest))
}

// Listing colorizes every line of a listing.
func Listing(text string) string {
	if !Enabled() {
		return text
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, ln := range lines {
		lines[i] = Line(ln)
	}
	return strings.Join(lines, "\n") + "\n"
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func colorizeFullLine(line string) string {
	out, err := Code(line)
	if err != nil {
		return line
	}
	return out
}

// StripANSI removes ANSI escape codes.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
