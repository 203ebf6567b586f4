package intake

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/claimdesk/intake/pkg/domain"
)

// Runner drives one wizard session from a line-oriented terminal.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

const runnerHelp = `Commands:
  set <section> <json>   replace a draft section
  next | back            move one step
  goto <index|step-id>   jump to a step (1-based index)
  check                  validate the current step
  show                   print the current step again
  cancel                 abandon the claim
  quit                   leave; progress is saved`

// Run executes the command loop until the session ends, the input is exhausted or the user quits.
func (r *Runner) Run(ctx context.Context, engine *Engine, key domain.ProgressKey, seed domain.ClaimDraft) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	_, resumed, err := engine.Start(ctx, key, seed)
	if err != nil {
		return err
	}
	// Progress is flushed even when ctx was cancelled by a signal.
	defer func() { _ = engine.Drop(context.WithoutCancel(ctx), key) }()

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- Claim intake ---")
		if resumed {
			fmt.Fprintln(r.Output, "Resuming saved progress.")
		}
		fmt.Fprintln(r.Output, runnerHelp)
	}

	lastRendered := -1
	for {
		var (
			current  int
			terminal bool
			view     string
		)
		if err := engine.Do(ctx, key, func(_ context.Context, c *Controller) error {
			s := c.Session()
			current, terminal = s.CurrentStepIndex, s.Terminal()
			if current != lastRendered || terminal {
				view = stepMarkdown(c)
			}
			return nil
		}); err != nil {
			return err
		}
		if view != "" {
			r.print(view)
			lastRendered = current
		}
		if terminal {
			return nil
		}

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(text) == "") {
			if errors.Is(err, io.EOF) {
				// Graceful exit on EOF
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Progress saved. Bye!")
			return nil
		}

		out, err := r.dispatch(ctx, engine, key, input)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSubmissionFailed),
			errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrInvalidPatch),
			errors.Is(err, domain.ErrStepNotFound),
			errors.Is(err, errUsage):
			out = "Error: " + err.Error()
		default:
			return err
		}
		if out != "" {
			fmt.Fprintln(r.Output, out)
		}
		if input == "show" {
			lastRendered = -1
		}
	}
}

var errUsage = errors.New("usage")

func (r *Runner) dispatch(ctx context.Context, engine *Engine, key domain.ProgressKey, input string) (string, error) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	var out string
	err := engine.Do(ctx, key, func(ctx context.Context, c *Controller) error {
		var (
			move Move
			err  error
		)
		switch cmd {
		case "", "show":
			return nil
		case "help":
			out = runnerHelp
			return nil
		case "set":
			section, raw, ok := strings.Cut(rest, " ")
			if !ok {
				return fmt.Errorf("%w: set <section> <json>", errUsage)
			}
			var value any
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return fmt.Errorf("%w: invalid JSON for %s: %v", errUsage, section, err)
			}
			if _, err := c.Patch(domain.Patch{section: value}); err != nil {
				return err
			}
			out = "Saved " + section + "."
			return nil
		case "check":
			step, ok := c.Current()
			if !ok {
				return nil
			}
			res, err := c.Validate(step.ID)
			if err != nil {
				return err
			}
			out = resultText(res)
			return nil
		case "next":
			move, err = c.GoNext(ctx)
		case "back":
			move, err = c.GoPrevious(ctx)
		case "goto":
			if i, convErr := strconv.Atoi(rest); convErr == nil {
				move, err = c.GoToStep(ctx, i-1)
			} else {
				move, err = c.GoToStepID(ctx, rest)
			}
		case "cancel":
			err = c.Cancel(ctx)
			out = "Claim cancelled."
		default:
			return fmt.Errorf("%w: unknown command %q (try help)", errUsage, cmd)
		}
		if err != nil {
			return err
		}
		switch {
		case move.Blocked && move.Gate != nil:
			out = "Cannot continue. " + resultText(*move.Gate)
		case move.Completed:
			out = "Claim submitted: " + move.ClaimID
		}
		return nil
	})
	return out, err
}

func (r *Runner) print(markdown string) {
	output := markdown
	if r.Renderer != nil {
		if rendered, err := r.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

func stepMarkdown(c *Controller) string {
	s := c.Session()
	switch s.Status {
	case domain.StatusCompleted:
		return "## Claim submitted\n\nThank you. Your claim is on its way."
	case domain.StatusCancelled:
		return "## Claim cancelled"
	}

	step, _ := c.Current()
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Step %d of %d: %s\n\n", s.CurrentStepIndex+1, len(s.Steps), step.Title)
	if step.Description != "" {
		sb.WriteString(step.Description + "\n\n")
	}
	if !step.Required {
		sb.WriteString("_Optional._\n\n")
	}
	for _, section := range domain.StepSections[step.ID] {
		if v, ok := s.Draft[section]; ok {
			data, _ := json.Marshal(v)
			fmt.Fprintf(&sb, "- `%s`: `%s`\n", section, data)
		} else {
			fmt.Fprintf(&sb, "- `%s`: _empty_\n", section)
		}
	}
	return sb.String()
}

func resultText(res domain.ValidationResult) string {
	if len(res.Errors) == 0 {
		return "Step is valid."
	}
	prefix := "Warnings: "
	if !res.IsValid {
		prefix = "Missing: "
	}
	return prefix + strings.Join(res.Errors, "; ")
}
