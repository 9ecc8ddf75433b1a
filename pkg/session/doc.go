/*
Package session serializes access to a registry for concurrent hosts.

registry.Registry assumes one logical thread of control. The HTTP bridge and
the MCP server handle requests on many goroutines, so they go through a Manager
which runs every registry operation behind one mutex, the way a UI event loop
would run them one at a time. Trees returned by the Manager are copies that
the caller owns.
*/
package session
