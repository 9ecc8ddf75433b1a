/*
Package registry keeps one live state entry per identifier.

A Registry is an explicit object owned by the host: there is no package level
state, so independent registries can coexist (one per panel host, one per
test). Entries are created on first request and every later request for the
same identifier returns the same entry, whatever arguments it carries.

Registry and Entry do no locking. They assume a single logical thread of
control, such as a UI event loop. Concurrent hosts must serialize calls
themselves; see the session package.
*/
package registry
