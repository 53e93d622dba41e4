// Package sdk exposes Go functions and object methods as tools.
//
// Parameters are declared with explicit descriptors, or derived once
// from the typed input struct with JSON schema reflection.
package sdk
