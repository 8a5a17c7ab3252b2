package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	tgstyles "threadgen/internal/threadgen/styles"
)

// ThreadDark is the chroma style for listings.
var ThreadDark = styles.Register(chroma.MustNewStyle("thread-dark", chroma.StyleEntries{
	chroma.Text:        tgstyles.MnemonicHex,
	chroma.Background:  "bg:" + tgstyles.Background,
	chroma.Comment:     tgstyles.CommentHex,
	chroma.Keyword:     tgstyles.MnemonicHex + " bold",
	chroma.NameLabel:   tgstyles.LabelHex,
	chroma.NameBuiltin: tgstyles.TargetHex,

	chroma.LiteralNumber:        tgstyles.NumberHex,
	chroma.LiteralNumberInteger: tgstyles.NumberHex,
	chroma.LiteralNumberFloat:   tgstyles.NumberHex,

	chroma.Punctuation: "#808080",
}))
