// Package courier implements the Courier aggregate root: identity, the last
// reported position, availability, the advisory active order counter and the
// cash-on-delivery balance bounded by the courier's cash limit.
//
// Key business rules:
//   - 0 <= cash balance <= max cash limit after every mutation
//   - Only the cash ledger changes the balance, through ApplyCashDelta
//   - Out of order heartbeats never move a courier back in time
package courier
