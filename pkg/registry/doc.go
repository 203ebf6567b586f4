/*
Package registry implements the step registry of the intake wizard.

A variant is never a free-standing step list: it is a selection over a shared
Catalogue plus optional overrides of the required flag. Both built-in variants
("manual" and "ai-assisted") reference the same definitions, so titles and
descriptions cannot drift between flows.
*/
package registry
