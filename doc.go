/*
Package panelstate is an in-memory state container for UI panels embedded in a
host application.

A panel asks its registry for the entry of its identifier, reads values through
shape trees that describe a single path, falls back to the defaults it gave at
creation time, and merges partial updates without clobbering unrelated fields.
Saving an entry sends its state to the host over a Notifier.

# Concept

State, defaults, shapes and patches are all trees (domain.Tree). A shape is a
tree whose structure names the path to read:

	shape := domain.NewMap().Set("view", domain.NewMap().Set("zoom", domain.Null()))

reads state.view.zoom. Lists are addressed by index and merge index by index,
so merging {"a":[9]} into {"a":[1,2]} gives {"a":[9,2]}.

# Usage

	reg := registry.New()
	entry := panelstate.GetOrCreateState(reg, notifier, "panel1", defaults, initial)

	zoom := entry.Get(shape)
	entry.Set(partial)
	_ = entry.Save(ctx, "persist")
	entry.Reset()

The first call for an identifier wins: later GetOrCreateState calls return the
same entry and ignore their other arguments until the entry is reset.

# Hosts

A Registry does no locking. The HTTP bridge (pkg/adapters/http) and the MCP
server (pkg/adapters/mcp) serve a registry to other processes through
session.Manager, which serializes every call.
*/
package panelstate
