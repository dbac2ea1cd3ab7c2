// Package graph defines the scene graph for csgmesh.
// The scene graph is a DAG of primitives, transforms, boolean operations
// and extrusions. Nodes live in an arena and refer to their children by
// index, so a subtree can be shared by several parents and every child is
// added before any node that uses it.
package graph
