// Package driven defines the outbound ports of the hexagon: the
// interfaces the core services require from infrastructure. Adapters
// under internal/adapters/driven implement them; tests substitute
// memory stores and hand-rolled mocks.
package driven
