// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder produces deterministic unit-norm vectors by default and
// supports behavior injection via function fields, plus call counting
// for assertions.
package mock
