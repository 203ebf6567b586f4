package main

import (
	"os"

	"github.com/claimdesk/intake/internal/cli"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill in a claim interactively",
	Long: `Starts or resumes the wizard session of --org/--user/--variant in the terminal.
Progress is checkpointed to the configured store and survives Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyFromFlags(cmd)
		if err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetString("seed")
		headless, _ := cmd.Flags().GetBool("headless")

		engine, err := cli.CreateEngine(cfg, logger)
		if err != nil {
			return err
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		runErr := cli.RunSession(sc, engine, cli.RunOptions{
			Key:      key,
			SeedPath: seed,
			Headless: headless,
			Input:    os.Stdin,
			Output:   cmd.OutOrStdout(),
		})
		if err := engine.Close(cmd.Context()); err != nil && runErr == nil {
			return err
		}
		return runErr
	},
}

// addKeyFlags registers the progress key flags on cmd.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("org", "", "organization id")
	cmd.Flags().String("user", "", "user id")
	cmd.Flags().String("variant", domain.VariantManual, "wizard variant")
}

func keyFromFlags(cmd *cobra.Command) (domain.ProgressKey, error) {
	org, _ := cmd.Flags().GetString("org")
	user, _ := cmd.Flags().GetString("user")
	variant, _ := cmd.Flags().GetString("variant")
	key := domain.ProgressKey{OrganizationID: org, UserID: user, Variant: variant}
	return key, key.Validate()
}

func init() {
	rootCmd.AddCommand(runCmd)
	addKeyFlags(runCmd)
	runCmd.Flags().String("seed", "", "JSON file with initial draft sections (- for stdin)")
	runCmd.Flags().Bool("headless", false, "no banner, prompts or markdown rendering")
}
