/*
Package intake is a multi-step intake wizard engine for insurance claims.

A wizard variant is an ordered list of steps. Each step edits one or more sections
of a shared claim draft and carries a validation gate: required steps must be valid
before the wizard moves past them, and the claim is submitted exactly once when the
last step is left. Progress is checkpointed in the background with a trailing-edge
debounce so a user can close the browser and resume later.

# Architecture

The engine follows a hexagonal layout:

  - pkg/domain: sessions, drafts, checkpoints, events and sentinel errors.
  - pkg/registry: the step catalogue and its variants (built-in or YAML).
  - pkg/validator: per-step rules.
  - internal/runtime: the navigation controller.
  - pkg/persistence: debounced checkpointing over a ports.CheckpointStore.
  - pkg/adapters: memory, file, redis and sqlite stores, plus the HTTP surface.
  - pkg/session: live sessions per progress key for multi-user hosts.

# Usage

	engine, err := intake.New(intake.WithStore(store))
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	key := domain.ProgressKey{UserID: "u1", OrganizationID: "acme", Variant: domain.VariantManual}
	session, resumed, err := engine.Start(ctx, key, nil)

	err = engine.Do(ctx, key, func(ctx context.Context, c *intake.Controller) error {
		if _, err := c.Patch(domain.Patch{domain.SectionInsured: insured}); err != nil {
			return err
		}
		move, err := c.GoNext(ctx)
		if move.Blocked {
			fmt.Println(move.Gate.Errors)
		}
		return err
	})
*/
package intake
