package executor

import (
	"encoding/binary"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
)

const DefaultDedupSize = 1024

// Dedup remembers recently submitted payload pairs
type Dedup struct {
	cache *lru.Cache
}

func NewDedup(size int) (*Dedup, error) {
	if size <= 0 {
		size = DefaultDedupSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Dedup{cache: cache}, nil
}

// Key fingerprints a submission
func Key(direction types.Direction, paraswapData, kyberswapData []byte) uint64 {
	h := xxhash.New()
	var buf [8]byte
	h.Write([]byte{byte(direction)})
	for _, data := range [][]byte{paraswapData, kyberswapData} {
		binary.BigEndian.PutUint64(buf[:], uint64(len(data)))
		h.Write(buf[:])
		h.Write(data)
	}
	return h.Sum64()
}

func (d *Dedup) Seen(key uint64) bool {
	return d.cache.Contains(key)
}

func (d *Dedup) Mark(key uint64) {
	d.cache.Add(key, struct{}{})
}
