// Package storage bootstraps an embedded engine for the store: it opens the
// engine at a path and reconciles the column families physically present on
// disk against the set the caller requires.
//
// Entry points:
//
//   - Open / OpenWithOptions: open an engine that is assumed to already
//     contain exactly the requested column families; fail otherwise.
//   - NewEngine / NewEngineWithOptions: the startup path. Creates the
//     engine if nothing exists at the path yet, otherwise diffs the present
//     column family set against the requested descriptor and drives the
//     create/drop calls needed to converge, then returns the live handle.
//
// Reconciliation rules:
//
//   - An existing but empty directory is treated as "no engine yet" so a
//     previously failed creation can be retried.
//   - Present and requested sets are compared order-independently; a
//     descriptor that merely reorders the present families opens directly
//     without any drop/create churn.
//   - The default column family is never dropped, no matter what the
//     descriptor says.
//   - Failures during open, create or drop surface immediately. There is no
//     rollback; a partially reconciled engine is converged by simply
//     re-running with the same descriptor.
//
// The package is written against engine.Driver, not a concrete engine, and
// makes no concurrency provisions of its own: reconciliation runs exactly
// once, synchronously, before the engine sees any concurrent access, and
// the embedding system must serialize open attempts per path.
package storage
