// Package cashtx models the two cash movements of a cash-on-delivery order:
// the courier paying the restaurant and the customer paying the courier.
// Transactions are append-only history; only Pending ones change state.
package cashtx
