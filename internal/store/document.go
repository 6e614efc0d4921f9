// Package store implements the CRDT Store (§4.B): a persisted, mergeable
// document holding every entity, every relation, and sequence-number
// metadata. The underlying conflict-free replicated data structure is
// treated as a black box per the specification's scope carve-out; this
// package wraps github.com/automerge/automerge-go, the closest published
// Go library offering mergeable maps, mergeable lists, snapshot
// export/import, and version vectors.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/automerge/automerge-go"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/medulla-kb/medulla/internal/types"
)

const (
	// DocFile is the binary CRDT snapshot's filename inside the dot-directory.
	DocFile = "loro.db"

	schemaVersion = 1
	engineVersion = "0.1.0"
)

// relationContainer is the key the relations map is stored under, sibling
// to the per-type entity containers — relations are owned by neither
// endpoint (§3 Lifecycle).
const relationContainer = "relations"
const metaContainer = "_meta"
const typeSequencesKey = "type_sequences"

// Document is a single CRDT-backed Medulla document: the in-process
// automerge document plus the mutex that serializes all mutation, per the
// concurrency model in §5 ("document mutex... acquired before the
// subscription mutex").
type Document struct {
	mu   sync.Mutex
	doc  *automerge.Doc
	root string // project root the dot-directory lives under
	lock *flock.Flock
}

func dotDir(root string) string {
	return filepath.Join(root, ".medulla")
}

func docPath(root string) string {
	return filepath.Join(dotDir(root), DocFile)
}

func lockPath(root string) string {
	return filepath.Join(dotDir(root), ".write.lock")
}

// acquireLock takes an exclusive, non-blocking file lock guarding the
// dot-directory against a second CLI invocation or RPC server writing to
// the same document concurrently (§5 concurrency model names only an
// in-process mutex; this extends the same guarantee across processes).
func acquireLock(root string) (*flock.Flock, error) {
	lock := flock.New(lockPath(root))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to acquire workspace lock", err)
	}
	if !ok {
		return nil, types.NewError(types.KindCacheSyncFailed, "another medulla process is already writing to this workspace")
	}
	return lock, nil
}

// Init creates the dot-directory and an empty document. It fails with
// KindAlreadyInitialized if the directory already exists.
func Init(root string) (*Document, error) {
	dir := dotDir(root)
	if _, err := os.Stat(dir); err == nil {
		return nil, types.NewError(types.KindAlreadyInitialized, "medulla is already initialized in this project")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to create dot-directory", err)
	}

	lock, err := acquireLock(root)
	if err != nil {
		return nil, err
	}

	doc := automerge.New()
	d := &Document{doc: doc, root: root, lock: lock}
	if err := d.initMeta(); err != nil {
		return nil, err
	}
	for _, t := range types.BuiltinTypes {
		if _, err := d.typeContainer(t); err != nil {
			return nil, err
		}
	}
	if _, err := d.relations(); err != nil {
		return nil, err
	}
	if err := d.save(); err != nil {
		return nil, err
	}
	return d, nil
}

// Open loads an existing document. It fails with KindNotInitialized if the
// dot-directory or snapshot file is missing.
func Open(root string) (*Document, error) {
	path := docPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.KindNotInitialized, "medulla is not initialized in this project")
		}
		return nil, types.Wrap(types.KindInternal, "failed to read document snapshot", err)
	}
	doc, err := automerge.Load(data)
	if err != nil {
		return nil, types.Wrap(types.KindStorageCorruption, "document snapshot is corrupt", err)
	}
	lock, err := acquireLock(root)
	if err != nil {
		return nil, err
	}
	d := &Document{doc: doc, root: root, lock: lock}
	if err := d.Reconcile(); err != nil {
		lock.Unlock()
		return nil, err
	}
	return d, nil
}

// Close releases the workspace's cross-process write lock. Safe to call
// more than once.
func (d *Document) Close() error {
	if d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

// Save atomically serializes the document: write to a sibling temp file,
// then rename (§4.B Persistence).
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save()
}

func (d *Document) save() error {
	data, err := d.doc.Save()
	if err != nil {
		return types.Wrap(types.KindStorageCorruption, "failed to serialize document", err)
	}
	dir := dotDir(d.root)
	tmp, err := os.CreateTemp(dir, "loro-*.tmp")
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to create temp snapshot file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.Wrap(types.KindInternal, "failed to write temp snapshot file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.Wrap(types.KindInternal, "failed to close temp snapshot file", err)
	}
	if err := os.Rename(tmpPath, docPath(d.root)); err != nil {
		os.Remove(tmpPath)
		return types.Wrap(types.KindInternal, "failed to rename temp snapshot file into place", err)
	}
	return nil
}

// Root returns the project root this document was opened against.
func (d *Document) Root() string { return d.root }

// Heads returns the document's current version vector (change hashes), the
// CRDT's logical frontier used by the derived cache's sync protocol.
func (d *Document) Heads() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	heads := d.doc.Heads()
	out := make([]string, len(heads))
	for i, h := range heads {
		out[i] = h.String()
	}
	return out
}

// Merge merges another document's changes into this one; callers run
// Reconcile afterwards to restore contiguous sequence numbers. Used by the git merge driver
// and by tests exercising the sequence-reconciliation invariant.
func (d *Document) Merge(other *Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()
	if err := d.doc.Merge(other.doc); err != nil {
		return types.Wrap(types.KindStorageCorruption, "failed to merge documents", err)
	}
	return nil
}

// OpenSnapshotFile loads a raw document snapshot from an arbitrary file
// path, bypassing the dot-directory layout and cross-process lock Open
// requires. The git merge driver needs this: git hands it temporary file
// paths (%O/%A/%B), not a project root.
func OpenSnapshotFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to read document snapshot", err)
	}
	doc, err := automerge.Load(data)
	if err != nil {
		return nil, types.Wrap(types.KindStorageCorruption, "document snapshot is corrupt", err)
	}
	return &Document{doc: doc}, nil
}

// SaveAs serializes the document to an arbitrary file path, for callers
// operating outside the usual dot-directory layout (the git merge driver).
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.doc.Save()
	if err != nil {
		return types.Wrap(types.KindStorageCorruption, "failed to serialize document", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Document) typeContainer(t types.EntityType) (*automerge.Map, error) {
	m, err := d.doc.Path(string(t)).Map()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, fmt.Sprintf("failed to access %s container", t), err)
	}
	return m, nil
}

func (d *Document) relations() (*automerge.Map, error) {
	m, err := d.doc.Path(relationContainer).Map()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to access relations container", err)
	}
	return m, nil
}

func (d *Document) initMeta() error {
	meta, err := d.doc.Path(metaContainer).Map()
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to create meta container", err)
	}
	if err := meta.Set("schema_version", int64(schemaVersion)); err != nil {
		return types.Wrap(types.KindInternal, "failed to set schema_version", err)
	}
	if err := meta.Set("engine_version", engineVersion); err != nil {
		return types.Wrap(types.KindInternal, "failed to set engine_version", err)
	}
	if err := meta.Set("created_at", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return types.Wrap(types.KindInternal, "failed to set created_at", err)
	}
	if _, err := d.doc.Path(metaContainer, typeSequencesKey).Map(); err != nil {
		return types.Wrap(types.KindInternal, "failed to create type_sequences container", err)
	}
	return nil
}

// newID generates the stable 128-bit identifier assigned at creation.
func newID() string {
	return uuid.New().String()
}
