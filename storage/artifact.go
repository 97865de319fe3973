// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/tastevec/core"
)

// Artifact files hold a vector table in one flat MUS-encoded blob:
// an input fingerprint (movie artifacts only), a record count, then
// the records back to back. Writers always go through a temp file and
// rename, so readers never see a half-written table.

// WriteMovieArtifact writes the movie vector table to path. The
// fingerprint identifies the input corpus the table was computed from
// and lets readers reject checkpoints taken against different inputs.
func WriteMovieArtifact(path string, fingerprint core.ID, records []*core.MovieRecord) error {
	size := core.IDMUS.Size(fingerprint) + varint.Int.Size(len(records))
	for _, r := range records {
		size += core.MovieRecordMUS.Size(*r)
	}
	buf := make([]byte, size)
	n := core.IDMUS.Marshal(fingerprint, buf)
	n += varint.Int.Marshal(len(records), buf[n:])
	for _, r := range records {
		n += core.MovieRecordMUS.Marshal(*r, buf[n:])
	}
	return writeAtomic(path, buf)
}

// ReadMovieArtifact reads a movie vector table written by
// WriteMovieArtifact and returns the input fingerprint alongside the
// records.
func ReadMovieArtifact(path string) (core.ID, []*core.MovieRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	fingerprint, n, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	count, n1, err := varint.Int.Unmarshal(data[n:])
	if err != nil || count < 0 {
		return 0, nil, fmt.Errorf("%w: bad record count", ErrBadArtifact)
	}
	n += n1
	records := make([]*core.MovieRecord, 0, count)
	for i := 0; i < count; i++ {
		record, n1, err := core.MovieRecordMUS.Unmarshal(data[n:])
		if err != nil {
			return 0, nil, fmt.Errorf("%w: record %d: %v", ErrBadArtifact, i, err)
		}
		n += n1
		records = append(records, &record)
	}
	return fingerprint, records, nil
}

// WriteUserArtifact writes the user vector table to path.
func WriteUserArtifact(path string, vectors []*core.UserVector) error {
	size := varint.Int.Size(len(vectors))
	for _, v := range vectors {
		size += core.UserVectorMUS.Size(*v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vectors), buf)
	for _, v := range vectors {
		n += core.UserVectorMUS.Marshal(*v, buf[n:])
	}
	return writeAtomic(path, buf)
}

// ReadUserArtifact reads a user vector table written by
// WriteUserArtifact.
func ReadUserArtifact(path string) ([]*core.UserVector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: bad record count", ErrBadArtifact)
	}
	vectors := make([]*core.UserVector, 0, count)
	for i := 0; i < count; i++ {
		vector, n1, err := core.UserVectorMUS.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrBadArtifact, i, err)
		}
		n += n1
		vectors = append(vectors, &vector)
	}
	return vectors, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
