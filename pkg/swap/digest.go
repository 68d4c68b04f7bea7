package swap

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"tierswap/pkg/primitives"
)

// Digest is a BLAKE3-256 hash of a region's fields.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Digest hashes the fields of region as held by state. Pages the store does
// not hold hash as zeros. Comparing digests of the source and target windows
// verifies a swap.
func (s *StandardSwapSystem) Digest(state *SwapState, region primitives.Region) (Digest, error) {
	if _, err := s.checkState(state, "digest", "Digest"); err != nil {
		return Digest{}, err
	}
	if err := state.checkRegion(region, "Digest"); err != nil {
		return Digest{}, err
	}

	h := blake3.New()
	err := state.forEachPage(region, func(n primitives.PageNumber, inPage primitives.Region, _ uint64) error {
		p, err := state.LoadPage(n)
		if err != nil {
			return err
		}
		_, _ = h.Write(p.Slice(inPage))
		return nil
	})
	if err != nil {
		return Digest{}, err
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
