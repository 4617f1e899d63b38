package linhash

import (
	"fmt"
	"io"
)

// Print writes a human-readable summary of the relation's linear-hash
// state and the tuple/overflow-page count of every bucket, in the style of
// the teacher's table pretty-printer. It does not modify the relation.
func (r *Relation) Print(w io.Writer) error {
	fmt.Fprintf(w, "relation %s: nattrs=%d depth=%d sp=%d npages=%d ntups=%d\n",
		r.name, r.nattrs, r.depth, r.sp, r.npages, r.ntups)
	fmt.Fprintf(w, "choice vector: %s\n", r.cv.String())
	for p := int64(0); p < r.npages; p++ {
		if err := r.printBucket(w, p); err != nil {
			return err
		}
	}
	return nil
}

// printBucket prints one line for bucket p: the total tuple count across its
// primary page and overflow chain, and the number of overflow pages.
func (r *Relation) printBucket(w io.Writer, p int64) error {
	page, err := r.data.GetPage(p)
	if err != nil {
		return err
	}
	defer r.data.PutPage(page)

	ntups := pageNTuples(page)
	novflow := int64(0)
	next := pageOvflow(page)
	for next != NoPage {
		novflow++
		op, err := r.ovflow.GetPage(next)
		if err != nil {
			return err
		}
		ntups += pageNTuples(op)
		next = pageOvflow(op)
		r.ovflow.PutPage(op)
	}
	fmt.Fprintf(w, "  bucket %d: %d tuple(s), %d overflow page(s)\n", p, ntups, novflow)
	return nil
}
