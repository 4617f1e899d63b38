package linhash

import (
	"fmt"

	"mahash/pkg/bits"
	"mahash/pkg/pager"
)

// bucketTail tracks the page currently being appended to at the end of a
// bucket's chain — the primary page until it fills, then whichever
// overflow page is currently last.
type bucketTail struct {
	owner    *pager.Pager
	page     *pager.Page
	id       int64
	isOvflow bool
}

// split splits the bucket at the relation's current split pointer into
// itself and a brand new bucket at sp + 2^depth, rehashing every tuple in
// the old bucket's chain at depth+1 (spec section 4.4). It is called
// before Insert advances sp/depth, so r.depth and r.sp here are the
// pre-split values.
func (r *Relation) split() error {
	d := r.depth
	oldp := r.sp
	newp := oldp + (int64(1) << uint(d))

	newPrimary, err := r.data.GetNewPage()
	if err != nil {
		return err
	}
	newDataPage(newPrimary)
	if newPrimary.GetPageNum() != newp {
		r.data.PutPage(newPrimary)
		return fmt.Errorf("linhash: split allocated bucket %d, want %d", newPrimary.GetPageNum(), newp)
	}
	r.npages++

	tail := &bucketTail{owner: r.data, page: newPrimary, id: newp, isOvflow: false}

	curID := oldp
	oldIsOvflow := false
	for curID != NoPage {
		owner := r.data
		if oldIsOvflow {
			owner = r.ovflow
		}
		page, err := owner.GetPage(curID)
		if err != nil {
			releaseTail(tail)
			return err
		}

		offset := int64(0)
		for offset < pageFree(page) {
			data := pageData(page)
			end := offset
			for end < int64(len(data)) && data[end] != 0 {
				end++
			}
			tlen := end - offset
			if tlen == 0 {
				offset++
				continue
			}
			tupleStr := string(data[offset:end])

			h, err := tupleHash(r.cv, r.nattrs, tupleStr)
			if err != nil {
				owner.PutPage(page)
				releaseTail(tail)
				return err
			}
			stays := bits.Lower(h, int(d)+1) == bits.Word(oldp)
			if stays {
				offset += tlen + 1
				continue
			}

			if err := appendToBucket(r, tail, tupleStr); err != nil {
				owner.PutPage(page)
				releaseTail(tail)
				return err
			}
			// Compact in place and re-check the same offset, which now
			// holds what used to follow the removed tuple.
			compactPage(page, offset, tlen+1)
		}

		next := pageOvflow(page)
		owner.PutPage(page)
		curID = next
		oldIsOvflow = true
	}

	releaseTail(tail)
	return nil
}

// appendToBucket appends t to the bucket currently tracked by tail,
// extending its overflow chain (and re-pointing tail at the new page) if
// the current tail page is full. The new overflow page is read and filled
// first; the previous tail page is then linked to it and released, which
// hands its new overflow link back to the pager.
func appendToBucket(r *Relation, tail *bucketTail, t string) error {
	if addToPage(tail.page, t) {
		return nil
	}

	newID, err := r.allocOvflowPage()
	if err != nil {
		return err
	}
	newPage, err := r.ovflow.GetPage(newID)
	if err != nil {
		return err
	}
	if !addToPage(newPage, t) {
		r.ovflow.PutPage(newPage)
		return fmt.Errorf("linhash: tuple %q does not fit in a fresh overflow page during split", t)
	}
	pageSetOvflow(tail.page, newID)
	releaseTail(tail)

	tail.owner = r.ovflow
	tail.page = newPage
	tail.id = newID
	tail.isOvflow = true
	return nil
}

func releaseTail(tail *bucketTail) {
	tail.owner.PutPage(tail.page)
}
