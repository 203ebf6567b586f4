/*
Package validator implements the per-step validation gate of the intake wizard.

Rules are predicate and message pairs keyed by step id. Validation is pure and
deterministic: the same draft and step id always produce the same result, with
no clock, network or randomness involved. Steps that are not required in the
active variant always validate, and their failures are returned as advisory
messages for display.
*/
package validator
