package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/claimdesk/intake"
	"github.com/claimdesk/intake/internal/presentation/tui"
	"github.com/claimdesk/intake/pkg/domain"
)

// RunOptions contains the configuration for an interactive session.
type RunOptions struct {
	Key      domain.ProgressKey
	SeedPath string // optional JSON file with initial draft sections
	Headless bool
	Input    io.Reader
	Output   io.Writer
}

// RunSession drives one wizard session on the terminal until it ends or the user quits.
func RunSession(sc *SignalContext, engine *intake.Engine, opts RunOptions) error {
	seed, err := ReadDraft(opts.SeedPath)
	if err != nil {
		return err
	}

	r := &intake.Runner{
		Input:    NewInterruptibleReader(sc, opts.Input),
		Output:   opts.Output,
		Headless: opts.Headless,
	}
	if !opts.Headless {
		tui.PrintBanner(opts.Output, intake.Version)
		r.Renderer = intake.ContentRenderer(tui.NewRenderer(opts.Output))
	}

	err = r.Run(sc, engine, opts.Key, seed)
	if sc.Signal() != nil {
		fmt.Fprintln(opts.Output)
		PrintSystemMessage(opts.Output, "Interrupted; progress for %s is saved.", opts.Key)
		return nil
	}
	return err
}

// ReadDraft decodes a JSON object of draft sections. An empty path yields a nil draft.
func ReadDraft(path string) (domain.ClaimDraft, error) {
	if path == "" {
		return nil, nil
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}

	var d domain.ClaimDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", path, err)
	}
	if d == nil {
		return nil, errors.New("draft must be a JSON object of sections")
	}
	return d, nil
}
