package linhash

import (
	"encoding/binary"

	"mahash/pkg/bits"
	"mahash/pkg/pager"
)

// MaxBits is the width of a composite tuple hash, and the maximum directory
// depth a relation can reach.
const MaxBits = bits.MaxBits

// MaxChVec is the number of entries in a choice vector: one per bit of a
// composite hash.
const MaxChVec = MaxBits

// PageSize is the fixed size, in bytes, of every data/overflow page.
const PageSize = pager.Pagesize

// NoPage is the sentinel page id meaning "no such page" (used for an empty
// overflow chain link).
const NoPage = pager.NoPage

/////////////////////////////////////////////////////////////////////////////
////////////////////// Page header layout constants ///////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Every data/overflow page begins with a small header (free offset, tuple
// count, overflow link) followed by a packed sequence of NUL-terminated
// tuple strings. Each header field occupies a fixed binary.MaxVarintLen64
// slot, the same encoding the teacher's bucket header uses for its fields.
const (
	freeOffsetOffset int64 = 0
	freeOffsetSize   int64 = binary.MaxVarintLen64
	nTuplesOffset    int64 = freeOffsetOffset + freeOffsetSize
	nTuplesSize      int64 = binary.MaxVarintLen64
	ovflowOffset     int64 = nTuplesOffset + nTuplesSize
	ovflowSize       int64 = binary.MaxVarintLen64

	pageHeaderSize int64 = freeOffsetSize + nTuplesSize + ovflowSize
	// tupleAreaSize is how many bytes of each page are available to hold
	// packed tuple strings.
	tupleAreaSize int64 = PageSize - pageHeaderSize
)
