/*
Package domain contains the core domain models of the claim intake wizard.

It defines the step descriptors a wizard variant is built from, the claim draft
that accumulates answers across steps, the derived validation results, and the
checkpoint shape persisted for resume-after-interruption. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - StepDescriptor: One page of the wizard (id, title, required flag, order).
  - ClaimDraft: The in-progress answers, keyed by section name.
  - ValidationResult: Derived, per-step validity with user-facing messages.
  - WizardSession: The live navigation state of one wizard run.
  - Checkpoint: The persisted snapshot used to resume a session.
*/
package domain
