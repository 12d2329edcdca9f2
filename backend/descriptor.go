package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Default construction parameters used when a descriptor omits them.
const (
	DefaultHNSWM      = 32
	DefaultIVFNProbe  = 1
	DefaultHNSWSearch = 64
)

// Spec is a parsed construction descriptor.
type Spec struct {
	Kind  Kind
	NList int // IVF: number of inverted lists
	M     int // HNSW: connections per node
}

// ParseDescriptor parses a factory-style construction descriptor:
//
//	"Flat"          exact brute-force scan
//	"IVF<n>,Flat"   inverted file with n lists over flat storage
//	"HNSW<m>"       graph index with m connections per node
//
// The descriptor is intentionally a small subset of the FAISS index_factory
// grammar so persisted descriptors stay portable.
func ParseDescriptor(desc string) (Spec, error) {
	switch {
	case desc == "Flat":
		return Spec{Kind: KindFlat}, nil

	case strings.HasPrefix(desc, "IVF"):
		rest := strings.TrimPrefix(desc, "IVF")
		// Optional ",Flat" suffix for the list storage.
		if i := strings.IndexByte(rest, ','); i >= 0 {
			if rest[i+1:] != "Flat" {
				return Spec{}, fmt.Errorf("unsupported IVF storage %q in descriptor %q", rest[i+1:], desc)
			}
			rest = rest[:i]
		}
		nlist, err := strconv.Atoi(rest)
		if err != nil || nlist <= 0 {
			return Spec{}, fmt.Errorf("invalid IVF list count in descriptor %q", desc)
		}
		return Spec{Kind: KindIVF, NList: nlist}, nil

	case strings.HasPrefix(desc, "HNSW"):
		rest := strings.TrimPrefix(desc, "HNSW")
		m := DefaultHNSWM
		if rest != "" {
			var err error
			m, err = strconv.Atoi(rest)
			if err != nil || m <= 0 {
				return Spec{}, fmt.Errorf("invalid HNSW connectivity in descriptor %q", desc)
			}
		}
		return Spec{Kind: KindHNSW, M: m}, nil

	default:
		return Spec{}, fmt.Errorf("unknown index descriptor %q", desc)
	}
}
