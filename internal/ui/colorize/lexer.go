package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ThreadCode lexes DT_* programs, listings and the two-line thread output.
var ThreadCode = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "threadcode",
		Aliases:   []string{"dt"},
		Filenames: []string{"*.dt"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `;[^\n]*`, Type: chroma.Comment},
				{Pattern: `DT_[A-Z0-9_]+`, Type: chroma.Keyword},
				{Pattern: `[A-Z][A-Za-z0-9_]*`, Type: chroma.NameLabel},
				{Pattern: `-?\d+\.\d+`, Type: chroma.LiteralNumberFloat},
				{Pattern: `-?\d+`, Type: chroma.LiteralNumberInteger},
				{Pattern: `[,{}:]`, Type: chroma.Punctuation},
				{Pattern: `[^\s,{}:;]+`, Type: chroma.Text},
			},
		}
	},
))
