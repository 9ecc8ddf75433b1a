/*
Package ports defines the driven ports (interfaces) of panelstate.

These interfaces decouple the registry from the host it is embedded in, allowing
entries to notify different channels and to be checkpointed to various storage
backends.

# Key Interfaces

  - Notifier: the one-way notify channel an entry's Save writes to.
  - SnapshotStore: the optional durable-storage collaborator.
*/
package ports
