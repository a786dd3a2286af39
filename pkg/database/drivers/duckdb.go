//go:build cgo && duckdb && linux && (amd64 || arm64)

// DuckDB needs CGO and is opt-in:
//
//	CGO_ENABLED=1 go build -tags duckdb -o radiography-shield
package drivers

import (
	_ "github.com/marcboeker/go-duckdb"
)
