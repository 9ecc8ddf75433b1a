/*
Package persistence connects a registry to a durable SnapshotStore.

The registry never touches storage on its own. Hosts that want durability
install Hooks, which write an entry's state when it is saved and remove it
from the store when it is reset, and seed new entries with Hydrate.
Checkpoint writes every live entry at once, e.g. on shutdown.

Stores can be wrapped with the middleware subpackage (encryption, PII masking).
*/
package persistence
