// Package domain defines the core domain types for the railviz interlocking
// schematic renderer.
//
// This package contains the records ingested from the upstream conversion
// service payload: the nodes and edges of a railway interlocking topology
// and the graph-level properties used for viewport fitting.
//
// # Core Types
//
// Node represents a topology element: a Point (switch/junction), an Endpoint
// (track terminal) or a Signal (directional trackside signal with an angle
// and a direction).
//
// Edge represents a track segment between two nodes, referenced by uuid,
// with an integer track classification used for colouring.
//
// Graph is the complete payload: nodes, edges and the extreme coordinate
// properties (max_x, max_y).
//
// NodePosition is one entry of a layout frame: the current pixel position of
// a node and whether it is pinned.
//
// # Validation
//
// Graph.Validate checks the payload structure and resolves every edge end to
// a node. An unresolved reference yields an error matching ErrMalformedGraph;
// such a graph must never reach the layout engine or the scene renderer.
//
// # Design Principles
//
// - No database or external dependencies beyond struct validation
// - Unknown node and edge types are preserved, never rejected
// - Derived pixel fields are owned by the normalizer, not the payload
package domain
