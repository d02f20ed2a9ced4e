package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/controller"
	"movemut.dev/pkg/movemut/internal/domain"
	m "movemut.dev/pkg/movemut/internal/model"
)

var verifyTargetFlag string

// verifyCmd represents the verify command.
var verifyCmd = newVerifyCmd()

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify REPLACEMENT",
		Short: "Compile-check a single mutant without running tests",
		Long: `Verify that the package still compiles when the target source file is
replaced by REPLACEMENT. The check happens in a private copy of the package;
the real checkout is never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&verifyTargetFlag, "target", "t", "", "source file the replacement stands in for")
	cmd.Flags().BoolVar(&runDevFlag, devFlagName, false, "use dev-addresses and dev-dependencies")
	cobra.CheckErr(cmd.MarkFlagRequired("target"))

	return cmd
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, replacementPath string) error {
	target, err := filepath.Abs(verifyTargetFlag)
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}

	fs := adapter.NewLocalSandboxFSAdapter()

	replacement, err := fs.ReadFile(m.Path(replacementPath))
	if err != nil {
		return fmt.Errorf("read replacement: %w", err)
	}

	original, err := fs.ReadFile(m.Path(target))
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}

	if err := controller.MutantDiff(cmd.OutOrStdout(), m.Path(target), string(original), string(replacement)); err != nil {
		return err
	}

	cfg, err := buildConfigFromFlags()
	if err != nil {
		return err
	}

	mutant := m.Mutant{
		ID:           filepath.Base(replacementPath),
		OriginalFile: m.Path(target),
		Source:       replacement,
	}

	verifier := domain.NewVerifier(
		adapter.NewExecToolchain(viper.GetString(toolchainConfigKey)),
		fs,
	)

	err = verifier.VerifyMutant(cmd.Context(), cfg, mutant)
	if err == nil {
		cmd.Println("mutant compiles")
		return nil
	}

	var compileErr *m.CompileVerifyError
	if errors.As(err, &compileErr) {
		cmd.Println("mutant does not compile:")
		cmd.Println(compileErr.Diagnostics)
	}

	return err
}
