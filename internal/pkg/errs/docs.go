// Package errs provides standardized error types for the dispatch service.
//
// Validation and persistence errors follow one pattern: a sentinel error variable
// (ErrValueIsRequired, ErrObjectNotFound, ErrVersionIsInvalid, ...), a struct type with
// the error details, constructors with and without cause, and Unwrap returning the sentinel.
//
// Expected business outcomes of the dispatch and ledger use cases are expressed as
// BusinessError values carrying a Code (NoCourierAvailable, AlreadyAssigned, ...).
// Use cases convert them to typed results at their boundary with CodeOf.
package errs
