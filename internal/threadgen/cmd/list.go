package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"threadgen/internal/listing"
	"threadgen/internal/thread"
	"threadgen/internal/threadgen/styles"
	"threadgen/internal/ui/colorize"
)

var listCmd = &cobra.Command{
	Use:   "list [program]",
	Short: "Print an annotated listing of a threaded program",
	Long: `Print one line per token with its stream position, label rank and,
for rewritten jump operands, the label the rank refers to.`,
	Example: `
# Annotated listing of the example program
threadgen list --example

# Markdown report
threadgen list --markdown -f program.dt
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig(cmd)
		if err != nil {
			return err
		}
		src, err := readProgram(cmd, args)
		if err != nil {
			return err
		}
		res, err := thread.Thread(src, cfg.Policy())
		if err != nil {
			return fmt.Errorf("rewrite failed: %w", err)
		}

		l := listing.Build(res)
		out := cmd.OutOrStdout()
		markdown, _ := cmd.Flags().GetBool("markdown")
		if markdown {
			width, _ := cmd.Flags().GetInt("width")
			return writeMarkdown(out, l, width)
		}

		text := l.Text()
		if isTerminal(out) {
			text = colorize.Listing(text)
		}
		_, err = io.WriteString(out, text)
		return err
	},
}

// writeMarkdown renders the listing through glamour on a terminal and
// writes plain markdown otherwise.
func writeMarkdown(w io.Writer, l listing.Listing, width int) error {
	md := l.Markdown("Threaded program")
	if !isTerminal(w) || !colorize.Enabled() {
		_, err := io.WriteString(w, md)
		return err
	}

	r, err := styles.GetMarkdownRenderer(width)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func init() {
	listCmd.Flags().BoolP("markdown", "m", false, "Render the listing as markdown")
	listCmd.Flags().Int("width", 100, "Word wrap width for markdown output")
}
