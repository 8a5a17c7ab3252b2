package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"threadgen/internal/thread"
	"threadgen/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [program]",
	Short: "Execute a program on the threading VM",
	Long: `Rewrite a program and execute it on the stack VM.
By default jump operands are resolved through the thread table
(indirect threading); --direct runs the raw stream instead.`,
	Example: `
# Run the built-in example (prints 7)
threadgen run --example

# Run without rewriting and show the DT_SEEK register
threadgen run --direct --seek "DT_IMMI,5,DT_IMMI,3,DT_ADD,DT_SEEK,DT_END"
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

		direct, _ := cmd.Flags().GetBool("direct")
		showSeek, _ := cmd.Flags().GetBool("seek")
		mcfg := cfg.MachineConfig()
		if cmd.Flags().Changed("max-steps") {
			mcfg.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
		}
		if cmd.Flags().Changed("memory") {
			mcfg.MemorySize, _ = cmd.Flags().GetInt("memory")
		}

		var prog *vm.Program
		if direct {
			prog, err = vm.LoadDirect(thread.Tokenize(src))
		} else {
			var res *thread.Result
			res, err = thread.Thread(src, cfg.Policy())
			if err != nil {
				return fmt.Errorf("rewrite failed: %w", err)
			}
			prog, err = vm.LoadThreaded(res)
		}
		if err != nil {
			return fmt.Errorf("load failed: %w", err)
		}

		m := vm.New(mcfg)
		m.Stdout = cmd.OutOrStdout()
		m.Stdin = cmd.InOrStdin()
		if err := m.Run(cmd.Context(), prog); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		slog.Debug("Program finished", "steps", m.Steps(), "direct", direct)

		if showSeek {
			fmt.Fprintf(cmd.OutOrStdout(), "seek: %d\n", m.Seek)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("direct", false, "Run the raw stream with position operands")
	runCmd.Flags().Bool("seek", false, "Print the DT_SEEK register after the run")
	runCmd.Flags().Int("max-steps", vm.DefaultMaxSteps, "Instruction limit (-1 for none)")
	runCmd.Flags().Int("memory", vm.DefaultMemorySize, "VM memory size in bytes")
}
