/*
Package diff computes structural differences between two snapshots of
an object graph, and compares graphs for deep equality.

The result of a diff is an element tree (see package element) that
mirrors the original value: each member, position, map entry or set
element gets a child, marked EQUAL or MODIFIED. Graphs may contain
cycles; a re-entered value is represented by a leaf carrying
key.Circular rather than being descended into again.

Slices and arrays are matched by position, maps by key, and sets
(maps with zero-size values) by element. Register Unordered for a
slice type to match its elements by content instead. Other types can
be taken over entirely with a Generator.
*/
package diff
