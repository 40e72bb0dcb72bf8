// Package driving defines the inbound ports of the hexagon: the
// service interfaces offered to callers (the CLI, embedding
// applications) together with their request and response types.
package driving
