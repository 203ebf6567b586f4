/*
Package observability turns wizard lifecycle hooks into Prometheus metrics
and structured log lines.

Both helpers return domain.LifecycleHooks, so they compose with Merge and
plug into any controller, persistence adapter or session manager.
*/
package observability
