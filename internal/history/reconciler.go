package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/store/blobstore"
	"github.com/maribel/hairstudio/internal/store/metastore"
)

// Reconciler pairs the metadata store with the blob store. On load it
// hydrates reference payloads back into inline form; on every mutation it
// persists a metadata-only projection. Callers serialize access (the flow
// controller holds a lock across mutate-then-persist), so writes land in
// mutation order.
type Reconciler struct {
	meta  *metastore.Store
	blobs *blobstore.Store
	warnf func(format string, args ...any)
}

func NewReconciler(meta *metastore.Store, blobs *blobstore.Store, warnf func(format string, args ...any)) *Reconciler {
	if warnf == nil {
		warnf = func(string, ...any) {}
	}
	return &Reconciler{meta: meta, blobs: blobs, warnf: warnf}
}

// Hydrate loads the persisted history and resolves reference payloads
// through the blob store, preserving the persisted (newest-first) order.
// A record whose blob has gone missing keeps its reference payload — the
// caller renders it as a broken thumbnail, not an error. Storage failures
// degrade to an empty history.
func (rc *Reconciler) Hydrate(ctx context.Context) []Result {
	records, err := rc.meta.LoadAll(ctx)
	if err != nil {
		rc.warnf("history unavailable: %v", err)
		return nil
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		res := fromRecord(rec)
		if !res.Payload.IsInline() {
			data, err := rc.blobs.Load(ctx, res.ID)
			switch {
			case err == nil:
				res.Payload = InlinePayload(image.Encode(image.Sniff(data), data))
			case errors.Is(err, blobstore.ErrBlobNotFound):
				rc.warnf("image for %s is missing from the blob store", res.ID)
			default:
				rc.warnf("loading image for %s: %v", res.ID, err)
			}
		}
		results = append(results, res)
	}
	return results
}

// Persist writes the metadata projection of the given history, in order.
// Every persisted record carries its payload in reference form.
func (rc *Reconciler) Persist(ctx context.Context, results []Result) error {
	records := make([]metastore.Record, 0, len(results))
	for _, res := range results {
		records = append(records, res.ToRecord())
	}
	return rc.meta.SaveAll(ctx, records)
}

// SaveBlob stores a result's inline image bytes under its id.
func (rc *Reconciler) SaveBlob(ctx context.Context, res Result) error {
	if !res.Payload.IsInline() {
		return fmt.Errorf("result %s has no inline payload to store", res.ID)
	}
	_, data, err := image.Decode(res.Payload.Value)
	if err != nil {
		return fmt.Errorf("decode payload for %s: %w", res.ID, err)
	}
	return rc.blobs.Save(ctx, res.ID, data)
}

// RemoveBlob deletes a result's stored bytes. Idempotent.
func (rc *Reconciler) RemoveBlob(ctx context.Context, id string) error {
	return rc.blobs.Delete(ctx, id)
}

// Wipe clears both storage tiers.
func (rc *Reconciler) Wipe(ctx context.Context) error {
	if err := rc.blobs.Clear(ctx); err != nil {
		return err
	}
	return rc.meta.Clear(ctx)
}
