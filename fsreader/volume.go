package fsreader

import (
	"sync"

	"github.com/gofrs/flock"
)

// Volume is the single shared handle onto a raw NTFS volume (or a raw
// disk image in tests). Every parser that needs to walk data runs
// reads through one Volume rather than opening the device repeatedly,
// the same "one reader per resource, serialize access" shape
// filewatch uses for its per-file liners.
type Volume struct {
	mu          sync.Mutex
	f           *OSFileReader
	lock        *flock.Flock
	clusterSize int64
}

// OpenVolume opens the raw device/image at path and takes an advisory
// lock at lockPath so only one process walks it at a time -- acquiring
// a raw volume handle is exclusive on most platforms, and flock gives
// the same cooperative-lock semantics the teacher's ingest pipeline
// uses for its on-disk state files.
func OpenVolume(path, lockPath string, clusterSize int64) (*Volume, error) {
	if err := checkRawDeviceAccess(path); err != nil {
		return nil, err
	}
	fr, err := Open(path)
	if err != nil {
		return nil, err
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		fr.Close()
		return nil, err
	}
	if !locked {
		fr.Close()
		return nil, ErrNotReady
	}
	return &Volume{f: fr, lock: fl, clusterSize: clusterSize}, nil
}

func (v *Volume) ClusterSize() int64 { return v.clusterSize }

// ReadAt serializes access to the underlying device handle. Raw
// volume reads are infrequent relative to parser CPU work, so a single
// mutex is sufficient and avoids juggling a pool of duplicate handles.
func (v *Volume) ReadAt(p []byte, off int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.f.ReadAt(p, off)
}

// Close releases the volume lock and the underlying handle.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var err error
	if v.lock != nil {
		err = v.lock.Unlock()
	}
	if cerr := v.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
