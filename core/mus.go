package core

// Hand-written MUS serializers for the types that cross a storage
// boundary (artifact files and Badger values). The encodings are small
// enough that generated code is not worth the extra tooling.

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)

// Optional vector encoding: presence flag followed by the elements.
// A nil vector round-trips as nil, which keeps "explicit absence"
// distinct from a zero vector.

func marshalOptVec(v []float32, bs []byte) (n int) {
	n = ord.Bool.Marshal(v != nil, bs)
	if v != nil {
		n += float32SliceMUS.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalOptVec(bs []byte) (v []float32, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return nil, n, err
	}
	var n1 int
	v, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if v == nil {
		v = []float32{}
	}
	return v, n, nil
}

func sizeOptVec(v []float32) (size int) {
	size = ord.Bool.Size(v != nil)
	if v != nil {
		size += float32SliceMUS.Size(v)
	}
	return size
}

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// MovieRecordMUS serializes MovieRecord values.
var MovieRecordMUS = movieRecordMUS{}

type movieRecordMUS struct{}

func (movieRecordMUS) Marshal(r MovieRecord, bs []byte) (n int) {
	n = ord.String.Marshal(string(r.Source), bs)
	n += ord.String.Marshal(r.LocalID, bs[n:])
	n += varint.Int64.Marshal(r.TMDBID, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += ord.String.Marshal(r.RawTitle, bs[n:])
	n += varint.Int.Marshal(r.Year, bs[n:])
	n += ord.String.Marshal(r.Genres, bs[n:])
	n += ord.String.Marshal(r.TMDBTitle, bs[n:])
	n += ord.String.Marshal(r.TMDBReleaseDate, bs[n:])
	n += ord.String.Marshal(r.TMDBGenres, bs[n:])
	n += ord.String.Marshal(r.TMDBOverview, bs[n:])
	n += ord.String.Marshal(r.TMDBTopCast, bs[n:])
	n += ord.String.Marshal(r.TMDBKeywords, bs[n:])
	n += ord.String.Marshal(r.LongPlot, bs[n:])
	n += ord.String.Marshal(r.ShortPlot, bs[n:])
	n += ord.String.Marshal(r.Actors, bs[n:])
	n += ord.String.Marshal(r.Director, bs[n:])
	n += ord.String.Marshal(r.EmbeddingText, bs[n:])
	n += ord.String.Marshal(r.DedupKey, bs[n:])
	n += marshalOptVec(r.Embedding, bs[n:])
	return n
}

func (movieRecordMUS) Unmarshal(bs []byte) (r MovieRecord, n int, err error) {
	var n1 int
	var s string
	if s, n1, err = ord.String.Unmarshal(bs); err != nil {
		return r, n + n1, err
	}
	r.Source = Source(s)
	n += n1
	if r.LocalID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.TMDBID, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	for _, field := range []*string{
		&r.Title, &r.RawTitle,
	} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
	}
	if r.Year, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	for _, field := range []*string{
		&r.Genres, &r.TMDBTitle, &r.TMDBReleaseDate, &r.TMDBGenres,
		&r.TMDBOverview, &r.TMDBTopCast, &r.TMDBKeywords,
		&r.LongPlot, &r.ShortPlot, &r.Actors, &r.Director,
		&r.EmbeddingText, &r.DedupKey,
	} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
	}
	if r.Embedding, n1, err = unmarshalOptVec(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (movieRecordMUS) Size(r MovieRecord) (size int) {
	size = ord.String.Size(string(r.Source))
	size += ord.String.Size(r.LocalID)
	size += varint.Int64.Size(r.TMDBID)
	size += varint.Int.Size(r.Year)
	for _, s := range []string{
		r.Title, r.RawTitle, r.Genres,
		r.TMDBTitle, r.TMDBReleaseDate, r.TMDBGenres,
		r.TMDBOverview, r.TMDBTopCast, r.TMDBKeywords,
		r.LongPlot, r.ShortPlot, r.Actors, r.Director,
		r.EmbeddingText, r.DedupKey,
	} {
		size += ord.String.Size(s)
	}
	size += sizeOptVec(r.Embedding)
	return size
}

func (m movieRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return n, err
}

// UserVectorMUS serializes UserVector values.
var UserVectorMUS = userVectorMUS{}

type userVectorMUS struct{}

func (userVectorMUS) Marshal(u UserVector, bs []byte) (n int) {
	n = ord.String.Marshal(u.UserID, bs)
	n += marshalOptVec(u.Embedding, bs[n:])
	n += marshalOptVec(u.EmbeddingRating, bs[n:])
	n += marshalOptVec(u.EmbeddingText, bs[n:])
	n += varint.Int.Marshal(u.NumMovies, bs[n:])
	return n
}

func (userVectorMUS) Unmarshal(bs []byte) (u UserVector, n int, err error) {
	var n1 int
	if u.UserID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return u, n + n1, err
	}
	n += n1
	for _, vec := range []*[]float32{
		&u.Embedding, &u.EmbeddingRating, &u.EmbeddingText,
	} {
		if *vec, n1, err = unmarshalOptVec(bs[n:]); err != nil {
			return u, n + n1, err
		}
		n += n1
	}
	if u.NumMovies, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return u, n + n1, err
	}
	n += n1
	return u, n, nil
}

func (userVectorMUS) Size(u UserVector) (size int) {
	size = ord.String.Size(u.UserID)
	size += sizeOptVec(u.Embedding)
	size += sizeOptVec(u.EmbeddingRating)
	size += sizeOptVec(u.EmbeddingText)
	size += varint.Int.Size(u.NumMovies)
	return size
}

func (m userVectorMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return n, err
}

// UserStateMUS serializes UserState values.
var UserStateMUS = userStateMUS{}

type userStateMUS struct{}

func (userStateMUS) Marshal(s UserState, bs []byte) (n int) {
	n = ord.String.Marshal(s.UserID, bs)
	n += marshalOptVec(s.Embedding, bs[n:])
	n += varint.Int64.Marshal(s.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (userStateMUS) Unmarshal(bs []byte) (s UserState, n int, err error) {
	var n1 int
	if s.UserID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Embedding, n1, err = unmarshalOptVec(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	s.UpdatedAt = time.UnixMicro(micros).UTC()
	return s, n, nil
}

func (userStateMUS) Size(s UserState) (size int) {
	size = ord.String.Size(s.UserID)
	size += sizeOptVec(s.Embedding)
	size += varint.Int64.Size(s.UpdatedAt.UnixMicro())
	return size
}

func (m userStateMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return n, err
}
