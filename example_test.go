package intake_test

import (
	"context"
	"fmt"
	"log"

	"github.com/claimdesk/intake"
	"github.com/claimdesk/intake/pkg/domain"
)

// ExampleNew walks the first step of the manual variant with the in-memory defaults.
func ExampleNew() {
	ctx := context.Background()
	engine, err := intake.New()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	key := domain.ProgressKey{UserID: "adjuster-7", OrganizationID: "acme-claims", Variant: domain.VariantManual}
	if _, _, err := engine.Start(ctx, key, nil); err != nil {
		log.Fatal(err)
	}

	err = engine.Do(ctx, key, func(ctx context.Context, c *intake.Controller) error {
		move, err := c.GoNext(ctx)
		if err != nil {
			return err
		}
		fmt.Println("blocked:", move.Blocked)
		for _, msg := range move.Gate.Errors {
			fmt.Println(msg)
		}

		if _, err := c.Patch(domain.Patch{domain.SectionInsured: map[string]any{
			"firstName":      "Jane",
			"mailingAddress": map[string]any{"street": "1 Main St"},
		}}); err != nil {
			return err
		}
		move, err = c.GoNext(ctx)
		if err != nil {
			return err
		}
		step, _ := c.Current()
		fmt.Printf("moved %d -> %d (%s)\n", move.From, move.To, step.Title)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	// Output:
	// blocked: true
	// First name or organization name is required
	// Address is required
	// moved 0 -> 1 (Insurance)
}
