// Package syncer drives synchronization runs: for each active company it
// fetches devices from every enabled source the company has credentials for
// and hands each batch to the reconciliation engine.
//
// Companies run concurrently up to Config.Concurrency; sources within a
// company run in order. A per-company KeyedMutex keeps two overlapping runs
// in the same process off the same company. Runs in different processes are
// not coordinated, and racing lookup-then-insert sequences there are caught
// only by the natural-key unique indexes.
package syncer
