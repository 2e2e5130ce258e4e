/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package fsreader gives every parser the same uniform view of a byte
// source, whether it's a plain file on disk or a non-resident NTFS
// attribute stitched together from data runs and an alternate data
// stream. Parsers read through this interface instead of touching
// *os.File directly, the same separation filewatch draws between its
// Reader interface and the platform-specific liner underneath it.
package fsreader

import (
	"errors"
	"io"
	"os"
)

var (
	// ErrNotReady is returned by OpenVolume when another holder already
	// has the volume's advisory lock.
	ErrNotReady = errors.New("fsreader: reader not ready")
	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("fsreader: reader closed")
	// ErrRunOutOfRange is returned when a read offset falls outside the
	// attribute's size or past the end of its data runs.
	ErrRunOutOfRange = errors.New("fsreader: data run out of range")
)

// FileReader is the uniform read/seek/stat surface every artifact
// collector reads through.
type FileReader interface {
	io.ReaderAt
	io.Closer
	Size() int64
	Name() string
}

// Metadata carries the subset of filesystem metadata every artifact
// record wants, independent of which FileReader produced it.
type Metadata struct {
	Path       string
	Size       int64
	Mode       os.FileMode
	ModifiedAt int64 // unix seconds
	AccessedAt int64
	CreatedAt  int64
	IsDir      bool
}

// OSFileReader wraps a plain *os.File as a FileReader.
type OSFileReader struct {
	f    *os.File
	size int64
}

// Open opens path for reading and stats it up front so Size is cheap
// and stable for the lifetime of the reader.
func Open(path string) (*OSFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &OSFileReader{f: f, size: fi.Size()}, nil
}

func (r *OSFileReader) ReadAt(p []byte, off int64) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	return r.f.ReadAt(p, off)
}

func (r *OSFileReader) Size() int64 { return r.size }

func (r *OSFileReader) Name() string {
	if r.f == nil {
		return ""
	}
	return r.f.Name()
}

func (r *OSFileReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// StatMetadata reads os-level metadata for a path without opening it
// for content access.
func StatMetadata(path string) (Metadata, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Path:       path,
		Size:       fi.Size(),
		Mode:       fi.Mode(),
		ModifiedAt: fi.ModTime().Unix(),
		IsDir:      fi.IsDir(),
	}, nil
}
