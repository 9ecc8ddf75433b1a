/*
Package treeio reads and writes domain trees as JSON and YAML documents, and
renders patches between them in the formats the CLI offers.

YAML goes through yaml.v3 nodes so mapping order survives a round trip, the
same way the JSON codec in domain keeps object order.
*/
package treeio
