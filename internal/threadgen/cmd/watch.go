package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"threadgen/internal/config"
	"threadgen/internal/thread"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Rewrite every program line appended to a file",
	Long: `Follow a file and rewrite each line as a separate program.
Lines that fail to rewrite are logged and skipped.`,
	Example: `
# Follow new lines only
threadgen watch --new programs.txt

# Process the whole file once and exit
threadgen watch --follow=false programs.txt
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig(cmd)
		if err != nil {
			return err
		}
		follow, _ := cmd.Flags().GetBool("follow")
		newOnly, _ := cmd.Flags().GetBool("new")

		tcfg := tail.Config{
			Follow:    follow,
			ReOpen:    follow,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		}
		if newOnly {
			tcfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
		}

		t, err := tail.TailFile(args[0], tcfg)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer t.Cleanup()

		return watchLines(cmd, t, cfg)
	},
}

func watchLines(cmd *cobra.Command, t *tail.Tail, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				slog.Warn("Tail error", "file", t.Filename, "error", line.Err)
				continue
			}
			src := strings.TrimSpace(line.Text)
			if src == "" {
				continue
			}

			res, err := thread.Thread(src, cfg.Policy())
			if err != nil {
				slog.Error("Rewrite failed", "line", line.Num, "error", err)
				continue
			}
			if _, err := res.WriteLabeled(out, cfg.ThreadLabel(), cfg.StreamLabel()); err != nil {
				return err
			}
		}
	}
}

func init() {
	watchCmd.Flags().Bool("follow", true, "Keep following the file for new lines")
	watchCmd.Flags().Bool("new", false, "Skip lines already in the file")
}
