/*
Package observability provides registry hooks for monitoring panelstate.

Metrics exposes Prometheus collectors fed by entry lifecycle events; LogHooks
writes the same events to a structured logger. Both return registry.Hooks and
can be combined with registry.ComposeHooks.
*/
package observability
