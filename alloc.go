package burrow

import (
	"sync"
)

// bucketAlloc hands out dense per-bucket IIDs. The counter is seeded lazily
// from the highest IID already persisted in the bucket's IIDToOID table, so
// allocation survives restarts without any extra on-disk state.
type bucketAlloc struct {
	mu     sync.Mutex
	seeded bool
	next   IID
}

// NextIID reserves a fresh internal identifier for bucket. The first call
// per bucket after open scans the IIDToOID prefix once; later calls are a
// plain counter increment.
func (s *Store) NextIID(bucket string) (IID, error) {
	alloc, _ := s.allocs.LoadOrStore(bucket, &bucketAlloc{})
	alloc.mu.Lock()
	defer alloc.mu.Unlock()

	if !alloc.seeded {
		prefix := KindPrefix(IIDToOID, bucket)
		var top IID
		var found bool
		err := s.scanPrefix(prefix, func(key, _ []byte) error {
			iid, err := parseIIDToken(key[len(prefix):])
			if err != nil {
				return err
			}
			if !found || iid > top {
				top = iid
				found = true
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		if found {
			alloc.next = top + 1
		}
		alloc.seeded = true
		s.log.Debug("seeded iid allocator", "bucket", bucket, "next", alloc.next)
	}

	iid := alloc.next
	alloc.next++
	return iid, nil
}
