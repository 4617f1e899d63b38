package linhash

import (
	"github.com/bits-and-blooms/bitset"

	"mahash/pkg/bits"
	"mahash/pkg/pager"
)

// Query walks the candidate buckets of a partial-match query (spec section
// 5), yielding tuples that match the query's literal fields one at a time.
// Only composite-hash bit positions within the relation's current
// addressing range (0..depth inclusive) can affect which bucket a tuple
// lands in, so the candidate set is built by enumerating just those
// positions left unconstrained by the query's wildcards — everything above
// that range is pruned by the exact tupleMatch check instead.
type Query struct {
	r      *Relation
	fields []string

	addrs   []int64
	addrIdx int

	curOwner  *pager.Pager
	curPage   *pager.Page
	curOffset int64
}

// StartQuery parses q (spec section 6's textual query form: nattrs
// comma-separated fields, each a literal or Wildcard) against r and builds
// its candidate bucket list.
func StartQuery(r *Relation, q string) (*Query, error) {
	fields, err := splitQuery(q, r.nattrs)
	if err != nil {
		return nil, err
	}

	known := make([]bool, r.nattrs)
	attrHashes := make([]bits.Word, r.nattrs)
	for a, f := range fields {
		if f != Wildcard {
			known[a] = true
			attrHashes[a] = hashBytes([]byte(f))
		}
	}

	d := r.depth
	free := bitset.New(uint(MaxBits))
	var knownWord bits.Word
	for i := int64(0); i <= d; i++ {
		item := r.cv[i]
		if known[item.Att] {
			if bits.IsSet(attrHashes[item.Att], item.Bit) {
				knownWord = bits.Set(knownWord, int(i))
			}
		} else {
			free.Set(uint(i))
		}
	}

	var freePositions []int
	for i, ok := free.NextSet(0); ok; i, ok = free.NextSet(i + 1) {
		freePositions = append(freePositions, int(i))
	}

	seen := make(map[int64]bool)
	var addrs []int64
	total := int64(1) << uint(len(freePositions))
	for c := int64(0); c < total; c++ {
		h := knownWord
		for j, pos := range freePositions {
			if c&(int64(1)<<uint(j)) != 0 {
				h = bits.Set(h, pos)
			}
		}
		addr := bucketAddress(h, r.depth, r.sp)
		if !seen[addr] {
			seen[addr] = true
			addrs = append(addrs, addr)
		}
	}

	return &Query{r: r, fields: fields, addrs: addrs}, nil
}

// GetNextTuple returns the next tuple matching the query, in bucket-scan
// order. The second return value is false once every candidate bucket has
// been exhausted.
func (q *Query) GetNextTuple() (string, bool, error) {
	for {
		if q.curPage == nil {
			ok, err := q.advanceBucket()
			if err != nil {
				return "", false, err
			}
			if !ok {
				return "", false, nil
			}
		}

		for q.curOffset < pageFree(q.curPage) {
			data := pageData(q.curPage)
			end := q.curOffset
			for end < int64(len(data)) && data[end] != 0 {
				end++
			}
			tlen := end - q.curOffset
			if tlen == 0 {
				q.curOffset++
				continue
			}
			tupleStr := string(data[q.curOffset:end])
			q.curOffset += tlen + 1

			attrs, err := splitTuple(tupleStr, q.r.nattrs)
			if err != nil {
				q.releaseCurPage()
				return "", false, err
			}
			if tupleMatch(attrs, q.fields) {
				return tupleStr, true, nil
			}
		}

		next := pageOvflow(q.curPage)
		q.releaseCurPage()
		if next == NoPage {
			continue
		}
		p, err := q.r.ovflow.GetPage(next)
		if err != nil {
			return "", false, err
		}
		q.curPage = p
		q.curOwner = q.r.ovflow
		q.curOffset = 0
	}
}

// advanceBucket pins the next candidate bucket's primary page, if any.
func (q *Query) advanceBucket() (bool, error) {
	if q.addrIdx >= len(q.addrs) {
		return false, nil
	}
	addr := q.addrs[q.addrIdx]
	q.addrIdx++
	p, err := q.r.data.GetPage(addr)
	if err != nil {
		return false, err
	}
	q.curPage = p
	q.curOwner = q.r.data
	q.curOffset = 0
	return true, nil
}

func (q *Query) releaseCurPage() {
	if q.curPage != nil {
		q.curOwner.PutPage(q.curPage)
		q.curPage = nil
		q.curOwner = nil
		q.curOffset = 0
	}
}

// Close releases any page the query is still holding. Safe to call more
// than once, and safe to skip once GetNextTuple has returned ok=false.
func (q *Query) Close() error {
	q.releaseCurPage()
	return nil
}
