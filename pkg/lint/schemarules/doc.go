// Package schemarules holds the built-in schema lint rules. Importing it
// registers them:
//
//   - PG01 (overlay): malformed conditional term
//   - PG02 (overlay): condition on a variable no enclosing module binds
//   - PG03 (naming): duplicate var-name within one instance
//   - PG04 (values): non-numeric default or steps
//   - PG05 (binding): bidirectional source without a host binding
package schemarules
