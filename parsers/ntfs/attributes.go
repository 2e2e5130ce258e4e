package ntfs

import "github.com/forensant/artemis/fsreader"

// DecodeDataRuns decodes a non-resident attribute's mapping-pairs
// array into the run list fsreader.NTFSReader stitches into a flat
// stream, per spec §4.2.2 step 3: a sequence of
// (length-bytes, offset-bytes) header bytes followed by the
// little-endian run length and signed relative cluster offset, each
// sized by the header nibbles. The terminator is a zero header byte.
func DecodeDataRuns(raw []byte) ([]fsreader.DataRun, error) {
	var runs []fsreader.DataRun
	var cluster int64

	pos := 0
	for pos < len(raw) {
		header := raw[pos]
		if header == 0 {
			break
		}
		pos++

		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)
		if pos+lengthBytes+offsetBytes > len(raw) {
			return nil, ErrTruncatedEntry
		}

		length := readLE(raw[pos : pos+lengthBytes])
		pos += lengthBytes

		if offsetBytes == 0 {
			// sparse run: no cluster offset field at all
			runs = append(runs, fsreader.DataRun{ClusterCount: uint64(length), IsSparse: true})
			continue
		}

		offset := readSignedLE(raw[pos : pos+offsetBytes])
		pos += offsetBytes
		cluster += offset

		runs = append(runs, fsreader.DataRun{
			StartCluster: uint64(cluster),
			ClusterCount: uint64(length),
		})
	}
	return runs, nil
}

func readLE(b []byte) int64 {
	var v int64
	for i := len(b) - 1; i >= 0; i-- {
		v = (v << 8) | int64(b[i])
	}
	return v
}

// readSignedLE decodes a little-endian two's-complement run offset,
// sign-extending from its natural byte width.
func readSignedLE(b []byte) int64 {
	v := readLE(b)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		v -= int64(1) << uint(len(b)*8)
	}
	return v
}
