package main

import (
	"errors"
	"fmt"

	"github.com/claimdesk/intake/internal/cli"
	"github.com/claimdesk/intake/internal/presentation/tui"
	"github.com/claimdesk/intake/pkg/validator"
	"github.com/spf13/cobra"
)

var errDraftInvalid = errors.New("draft is not ready to submit")

var validateCmd = &cobra.Command{
	Use:   "validate <draft.json>",
	Short: "Validate a claim draft against every step of a variant",
	Long:  `Reads a JSON object of draft sections ("-" for stdin) and reports the errors of each step. Exits non-zero when a required step is invalid.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, _ := cmd.Flags().GetString("variant")
		format, _ := cmd.Flags().GetString("format")

		reg, err := cli.LoadRegistry(cfg.Variants)
		if err != nil {
			return err
		}
		steps, err := reg.Steps(variant)
		if err != nil {
			return err
		}
		draft, err := cli.ReadDraft(args[0])
		if err != nil {
			return err
		}

		results := validator.New(steps).ValidateAll(draft)
		ready := true
		for _, r := range results {
			if !r.IsValid {
				ready = false
			}
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			if err := writeJSON(out, results); err != nil {
				return err
			}
		} else {
			if err := writeMarkdown(out, tui.ValidationMarkdown(variant, steps, results)); err != nil {
				return err
			}
			verdict := "Ready to submit"
			if !ready {
				verdict = "Not ready to submit"
			}
			fmt.Fprintln(out, tui.Status(out, ready, verdict))
		}

		if !ready {
			return errDraftInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("variant", "manual", "wizard variant")
	validateCmd.Flags().StringP("format", "f", "markdown", "output format: markdown, json")
}
