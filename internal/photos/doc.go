// Package photos manages photo files for catalog items: verified intake into
// the managed photos directory and registration in the catalog.
package photos
