// Package types defines the Store interface, the Entity model, configuration,
// and standard errors for the entity list storage engine.
//
// A Store keeps named lists of entities. Each list has its own dynamic set of
// property columns, a stable ordinal index over its entities, and an optional
// content hash recorded on behalf of the synchronization layer.
package types
