package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"threadgen/internal/config"
	"threadgen/internal/thread"
	tglog "threadgen/internal/threadgen/log"
	"threadgen/internal/ui/colorize"
)

// sampleProgram is the demonstration program selected by --example.
const sampleProgram = "DT_IMMI,2,DT_IMMI,1,DT_GT,DT_JZ,13,DT_IMMI,3,DT_IMMI,4,DT_JMP,17,DT_IMMI,5,DT_IMMI,6,DT_ADD,DT_PRINT,DT_END"

// JSONOutput is the --json form of a threaded program. Resolved slots of
// Instruments are integers, all other slots strings.
type JSONOutput struct {
	Thread      []int `json:"thread"`
	Instruments []any `json:"instruments"`
}

func newJSONOutput(res *thread.Result) JSONOutput {
	out := JSONOutput{
		Thread:      append(make([]int, 0, res.Labels.Len()), res.Labels.Positions...),
		Instruments: make([]any, len(res.Stream)),
	}
	for i, it := range res.Stream {
		out.Instruments[i] = it.Value()
	}
	return out
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("config", "C", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.PersistentFlags().StringP("file", "f", "", "Read the program from a file")
	rootCmd.PersistentFlags().BoolP("example", "e", false, "Use the built-in example program")

	rootCmd.Flags().BoolP("json", "j", false, "Output the thread and stream as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

var rootCmd = &cobra.Command{
	Use:   "threadgen [program]",
	Short: "Rewrite DT_* instruction streams into threaded code",
	Long: `Threadgen converts a comma-separated DT_* instruction stream into threaded form.
Every token starting with an uppercase letter is a label; the operands of
DT_JMP, DT_JZ, DT_JMP_IF and DT_IF_ELSE are rewritten from stream positions
into ranks of the label table.`,
	Example: `
# Rewrite a program given on the command line
threadgen "A,DT_JMP,0"

# Rewrite the built-in example and print JSON
threadgen --example --json

# Read the program from a file
threadgen -f program.dt
  `,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))

		debug, _ := cmd.Flags().GetBool("debug")
		tglog.Setup(debug || cfg.Debug)
		return nil
	},
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
		slog.Debug("Rewrote program",
			"tokens", len(res.Tokens),
			"labels", res.Labels.Len(),
			"targets", res.Targets(),
			"jumpOpcodes", cfg.Policy().Opcodes())

		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(out, res)
		}
		return writeThread(out, res, cfg)
	},
}

type configKey struct{}

// loadConfig reads the file named by --config, which must exist, or else
// the optional THREADGEN_CONFIG file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(os.Getenv("THREADGEN_CONFIG"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// currentConfig returns the config loaded by PersistentPreRunE, loading it
// when the command runs outside the root command.
func currentConfig(cmd *cobra.Command) (*config.Config, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return cfg, nil
		}
	}
	return loadConfig(cmd)
}

// readProgram returns the program text from, in order: the argument,
// --file, --example, or piped stdin.
func readProgram(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read program: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if example, _ := cmd.Flags().GetBool("example"); example {
		return sampleProgram, nil
	}

	src, ok, err := readPipedStdin(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if ok {
		return src, nil
	}
	return "", fmt.Errorf("no program given (pass it as an argument, with --file, --example or on stdin)")
}

// readPipedStdin reads r when it is not an interactive terminal.
func readPipedStdin(r io.Reader) (string, bool, error) {
	if f, ok := r.(*os.File); ok {
		if term.IsTerminal(f.Fd()) {
			return "", false, nil
		}
		fi, err := f.Stat()
		if err != nil {
			return "", false, err
		}
		if fi.Mode()&os.ModeCharDevice != 0 {
			return "", false, nil
		}
	}
	bts, err := io.ReadAll(r)
	if err != nil {
		return "", false, err
	}
	src := strings.TrimSpace(string(bts))
	return src, src != "", nil
}

func writeJSON(w io.Writer, res *thread.Result) error {
	jsonData, err := json.MarshalIndent(newJSONOutput(res), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func writeThread(w io.Writer, res *thread.Result, cfg *config.Config) error {
	if !isTerminal(w) {
		_, err := res.WriteLabeled(w, cfg.ThreadLabel(), cfg.StreamLabel())
		return err
	}

	var buf strings.Builder
	if _, err := res.WriteLabeled(&buf, cfg.ThreadLabel(), cfg.StreamLabel()); err != nil {
		return err
	}
	_, err := io.WriteString(w, colorize.Listing(buf.String()))
	return err
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func Execute() {
	// Bypass fang when output is being piped
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
