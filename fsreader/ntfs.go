package fsreader

import "sort"

// DataRun is one decoded NTFS data-run entry: ClusterCount*clusterSize
// bytes long, starting at the volume byte offset
// StartCluster*clusterSize. A sparse run has IsSparse set and no
// backing volume bytes at all -- reads return zero bytes.
//
// parsers/ntfs decodes these from a $DATA attribute's run list; this
// package only knows how to stitch them back into a flat byte stream.
type DataRun struct {
	StartCluster uint64
	ClusterCount uint64
	IsSparse     bool
}

// VolumeReader is the minimal raw-cluster access NTFSReader needs from
// an open volume (\\.\C: on Windows, or a raw image file in tests).
type VolumeReader interface {
	ReadAt(p []byte, off int64) (int, error)
	ClusterSize() int64
}

// NTFSReader presents a non-resident NTFS attribute (main $DATA stream
// or a named alternate data stream) as a flat FileReader, resolving
// reads against the attribute's data runs the same way the attribute
// itself is a logically contiguous stream of clusters.
type NTFSReader struct {
	vol   VolumeReader
	runs  []DataRun
	name  string
	size  int64
	bases []int64 // cumulative byte offset each run starts at within the attribute
}

// NewNTFSReader builds a FileReader over a decoded run list. size is
// the attribute's real (possibly sparse-trimmed) byte length.
func NewNTFSReader(vol VolumeReader, name string, runs []DataRun, size int64) *NTFSReader {
	bases := make([]int64, len(runs))
	var off int64
	for i, r := range runs {
		bases[i] = off
		off += int64(r.ClusterCount) * vol.ClusterSize()
	}
	return &NTFSReader{vol: vol, runs: runs, name: name, size: size, bases: bases}
}

func (r *NTFSReader) Size() int64  { return r.size }
func (r *NTFSReader) Name() string { return r.name }
func (r *NTFSReader) Close() error { return nil }

// ReadAt resolves a logical attribute offset against the run list,
// crossing run boundaries as needed, and zero-fills sparse runs.
func (r *NTFSReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= r.size {
		return 0, ErrRunOutOfRange
	}
	clusterSize := r.vol.ClusterSize()
	want := len(p)
	if int64(want) > r.size-off {
		want = int(r.size - off)
	}

	total := 0
	for total < want {
		cur := off + int64(total)
		idx := sort.Search(len(r.bases), func(i int) bool {
			return i == len(r.bases)-1 || r.bases[i+1] > cur
		})
		if idx >= len(r.runs) {
			return total, ErrRunOutOfRange
		}
		run := r.runs[idx]
		runLen := int64(run.ClusterCount) * clusterSize
		runOff := cur - r.bases[idx]
		n := int64(want - total)
		if n > runLen-runOff {
			n = runLen - runOff
		}

		dst := p[total : total+int(n)]
		if run.IsSparse {
			for i := range dst {
				dst[i] = 0
			}
		} else {
			volOff := int64(run.StartCluster)*clusterSize + runOff
			if _, err := r.vol.ReadAt(dst, volOff); err != nil {
				return total, err
			}
		}
		total += int(n)
	}
	return total, nil
}
