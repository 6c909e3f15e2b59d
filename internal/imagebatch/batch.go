// Package imagebatch accumulates the images attached to one listing draft
// and uploads them when the draft is submitted.
//
// The batch is bounded: Add silently drops anything past the cap, matching
// the form's file picker, which stops accepting files rather than erroring.
// Until Upload runs, files exist only in memory — nothing is persisted for
// a draft the user abandons.
package imagebatch

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/otabek/ijara/internal/storage"
)

// Cap is the maximum number of images per listing. The listing schema and
// the form enforce the same value, so a submitted listing can never carry
// more URLs than a draft could carry files.
const Cap = 5

// File is one image held in memory before upload.
type File struct {
	Name        string // original filename, used in the storage key
	ContentType string
	Data        []byte
}

// Batch is an ordered, bounded collection of files. The zero value is an
// empty batch ready for use. Batch is not safe for concurrent use; each
// submission owns its batch exclusively.
type Batch struct {
	files []File
}

// Add appends files to the batch, keeping at most Cap in total. Files that
// do not fit are dropped without error; earlier files are never displaced.
func (b *Batch) Add(files ...File) {
	for _, f := range files {
		if len(b.files) >= Cap {
			return
		}
		b.files = append(b.files, f)
	}
}

// Remove deletes the file at index i, preserving the order of the rest.
// Out-of-range indexes are ignored.
func (b *Batch) Remove(i int) {
	if i < 0 || i >= len(b.files) {
		return
	}
	b.files = append(b.files[:i], b.files[i+1:]...)
}

// Len returns the number of files currently in the batch.
func (b *Batch) Len() int {
	return len(b.files)
}

// Files returns a copy of the batch contents in display order.
func (b *Batch) Files() []File {
	out := make([]File, len(b.files))
	copy(out, b.files)
	return out
}

// Upload pushes every file to the object store, one at a time in display
// order, and returns the resulting public URLs in the same order.
//
// Uploads are deliberately sequential: the Nth URL always corresponds to
// the Nth image, and when something fails we know exactly which file it
// was. The first failure aborts the rest and is returned to the caller —
// no partial URL list is ever handed out. Files uploaded before the
// failure stay in the store; the submission workflow documents that gap
// instead of attempting a compensating delete.
//
// Keys are "houses/{ownerID}/{millis}-{index}-{filename}". The timestamp
// plus position makes collisions practically impossible even when the same
// filename is attached twice.
func (b *Batch) Upload(ctx context.Context, store storage.ObjectStore, ownerID int64) ([]string, error) {
	urls := make([]string, 0, len(b.files))
	stamp := time.Now().UnixMilli()

	for i, f := range b.files {
		key := fmt.Sprintf("houses/%d/%d-%d-%s", ownerID, stamp, i, path.Base(f.Name))
		if err := store.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data)); err != nil {
			return nil, fmt.Errorf("uploading image %d of %d: %w", i+1, len(b.files), err)
		}
		urls = append(urls, store.PublicURL(key))
	}

	return urls, nil
}
