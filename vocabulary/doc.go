// Package vocabulary defines the Brick ontology terms used by the compiler
// and the registry that maps sensor-role column names from availability
// tables to Brick point classes and their owning equipment kinds.
//
// The registry is loaded from a YAML mapping file. A default mapping
// covering the standard heating hot water roles is embedded in the binary,
// so a mapping file is only needed when a deployment adds custom roles.
package vocabulary
