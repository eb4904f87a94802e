// Package registry holds the console's local copy of the key registry and the
// selection state layered on top of it.
//
// # Core Components
//
//   - Cache: the last applied snapshot of key records, stored enabled-first
//   - Selection: the set of identifiers the user has ticked, independent of any snapshot
//   - Sequence stamps: monotonic numbers that order refreshes against each other and
//     against acknowledged mutations
//
// # Reconciliation
//
// A snapshot is applied with Replace. Records are partitioned into enabled and
// disabled groups, the Selected flag is reapplied from the Selection set by
// identifier, and identifiers that are no longer present are dropped from the set:
//
//	stamp := cache.Begin()
//	records, err := backend.ListKeys(ctx)
//	...
//	if !cache.Replace(stamp, records) {
//		// an older response arrived after a newer one was applied
//	}
//
// # Stale responses
//
// Every refresh takes a stamp from Begin before it goes to the network. Replace
// rejects a snapshot whose stamp is older than the last applied one, or that was
// taken before the most recent Acknowledge call. Mutations call Acknowledge once
// the backend confirms them, so a refresh started before the mutation can never
// overwrite state that reflects it.
//
// # Thread Safety
//
// Cache and Selection are not safe for concurrent use. The console controller
// serializes access under its own lock so that reconcile, sort and render happen
// as one step.
package registry
