// Package order models the delivery side of a customer order: where it is
// picked up and dropped off, what cash changes hands on delivery and the
// assignment lifecycle that binds exactly one courier to it.
package order
