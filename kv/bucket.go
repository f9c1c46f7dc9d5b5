// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error)  { return s.src.Get(s.b.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)    { return s.src.Has(s.b.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool       { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error       { return s.src.Put(s.b.key(key), val) }
func (s *bucketStore) Delete(key []byte) error         { return s.src.Delete(s.b.key(key)) }
func (s *bucketStore) NewBatch() Batch                 { return &bucketBatch{s.b, s.src.NewBatch()} }

func (s *bucketStore) Iterate(r Range) Iterator {
	r.Start = s.b.key(r.Start)
	if len(r.Limit) == 0 {
		r.Limit = prefixLimit([]byte(s.b))
	} else {
		r.Limit = s.b.key(r.Limit)
	}
	return &bucketIterator{s.src.Iterate(r), len(s.b)}
}

type bucketBatch struct {
	b Bucket
	Batch
}

func (bb *bucketBatch) Put(key, val []byte) error { return bb.Batch.Put(bb.b.key(key), val) }
func (bb *bucketBatch) Delete(key []byte) error   { return bb.Batch.Delete(bb.b.key(key)) }

type bucketIterator struct {
	Iterator
	n int
}

// Key strips the bucket prefix.
func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.n:] }

// prefixLimit returns the smallest key greater than every key with the given prefix.
func prefixLimit(prefix []byte) []byte {
	limit := make([]byte, len(prefix))
	copy(limit, prefix)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}
