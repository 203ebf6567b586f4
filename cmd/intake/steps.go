package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/claimdesk/intake/internal/cli"
	"github.com/claimdesk/intake/internal/presentation/graph"
	"github.com/claimdesk/intake/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps [variant]",
	Short: "List wizard variants or the steps of one variant",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		reg, err := cli.LoadRegistry(cfg.Variants)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			var sb strings.Builder
			sb.WriteString("# Variants\n\n")
			for _, name := range reg.Variants() {
				steps, _ := reg.Steps(name)
				fmt.Fprintf(&sb, "- **%s**: %d steps\n", name, len(steps))
			}
			return writeMarkdown(out, sb.String())
		}

		steps, err := reg.Steps(args[0])
		if err != nil {
			return err
		}
		switch format {
		case "json":
			return writeJSON(out, steps)
		case "mermaid":
			_, err := fmt.Fprint(out, graph.GenerateMermaid(steps, nil))
			return err
		default:
			return writeMarkdown(out, tui.StepsMarkdown(args[0], steps))
		}
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.Flags().StringP("format", "f", "markdown", "output format: markdown, json, mermaid")
}

// writeMarkdown renders md for a terminal, or writes it as-is when piped.
func writeMarkdown(w io.Writer, md string) error {
	rendered, err := tui.NewRenderer(w)(md)
	if err != nil {
		rendered = md
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(rendered, "\n"))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
