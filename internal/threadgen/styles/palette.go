package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Listing colors, shared by the chroma style and the viewer.
const (
	MnemonicHex = "#FFFFFF"
	LabelHex    = "#FFD700"
	NumberHex   = "#FF5F87"
	TargetHex   = "#4FC1FF"
	CommentHex  = "#6A9955"
	Background  = "#1e1e1e"
)

var (
	// Header renders the viewer title bar.
	Header = lipgloss.NewStyle().
		Foreground(lipgloss.Color(charmtone.Zest.Hex())).
		Background(lipgloss.Color(charmtone.Charple.Hex())).
		Bold(true).
		Padding(0, 1)

	// Menu renders the viewer key help.
	Menu = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1)

	// Stat renders a "key value" pair in the header.
	Stat = lipgloss.NewStyle().
		Foreground(lipgloss.Color(charmtone.Guac.Hex()))

	// Error renders failures in the viewer.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color(charmtone.Cheeky.Hex())).
		Bold(true)
)
