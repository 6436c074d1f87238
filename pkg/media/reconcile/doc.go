// Package reconcile implements media reconciliation between the catalog
// database and the object-storage bucket.
//
// The catalog holds references to media keys (product thumbnails, product
// gallery arrays, category thumbnails); the bucket holds the actual objects.
// Uploads and deletes can fail partway, so the two stores drift:
//
//   - an orphaned file exists in the bucket but nothing references it
//     (delete removed the document but the object delete failed, or an
//     upload landed and the document write never did)
//   - a dangling reference points at a key the bucket no longer holds
//     (object deleted out-of-band, or the upload failed after the
//     document was written)
//
// A run snapshots both key sets first, computes the two set differences,
// then deletes orphans in bounded batches and scrubs dangling references
// from the catalog. If either snapshot fails the run aborts without
// mutating anything: deleting against an incomplete key set could destroy
// live objects.
//
// Objects newer than a configurable grace period are never classified as
// orphans, so an in-flight upload whose document write has not landed yet
// survives the run and is re-examined on the next pass.
//
// Runs are serialized by an in-process guard: a trigger arriving while a
// run is active gets ErrRunInProgress immediately, before any store or
// database call. The guard is not a distributed lock; deploy a single
// instance of the reconciler or accept that concurrent instances may race.
package reconcile
