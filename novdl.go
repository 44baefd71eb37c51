// Package novdl downloads serialized web novels whose chapters are split
// across paginated sub-pages and assembles them into a single document.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/).
package novdl
