// Package drivers registers the database/sql backends the server can open.
// Tests open SQLite directly and skip this package.
package drivers

// Ready is a no-op that makes the import explicit at the call site.
func Ready() {}
