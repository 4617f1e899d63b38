// Package linhash implements a multi-attribute linear-hashed file: a
// disk-resident, bucket-organized index over comma-separated tuples that
// supports partial-match retrieval. It is the domain core this module is
// built around, grounded on the teacher's pkg/hash package (an extendible
// hash index) but reworked for linear hashing's split pointer and depth,
// multi-attribute choice-vector addressing, and overflow-chain buckets.
package linhash

import (
	"errors"
	"fmt"
	"os"

	"mahash/pkg/bits"
	"mahash/pkg/pager"
)

// defaultThreshold is the default number of insertions between splits:
// PageSize / (10 * nattrs), floored at 1. Spec section 9 calls this value
// "empirical" and a configuration knob; Relation.insertThreshold can be
// overridden via WithSplitThreshold.
func defaultThreshold(nattrs int) int64 {
	t := PageSize / (10 * int64(nattrs))
	if t < 1 {
		return 1
	}
	return t
}

// Relation is an open multi-attribute linear-hashed file: the linear-hash
// state (depth, split pointer, page/tuple counts) plus handles on its three
// backing files.
type Relation struct {
	name   string
	nattrs int
	depth  int64
	sp     int64
	npages int64
	ntups  int64
	cv     ChVec

	insertions      int64 // tuples inserted since the last split.
	insertThreshold int64 // insertions before a split is triggered.

	writable bool
	infoFile *os.File
	data     *pager.Pager
	ovflow   *pager.Pager
}

// Option configures a Relation handle returned by Open. Options are not
// stored in the .info file, so options passed to Create have no lasting
// effect.
type Option func(*Relation)

// WithSplitThreshold overrides the default insertions-before-split
// threshold (spec section 9's "configuration knob").
func WithSplitThreshold(n int64) Option {
	return func(r *Relation) {
		if n > 0 {
			r.insertThreshold = n
		}
	}
}

func fileNames(name string) (info, data, ovflow string) {
	return name + ".info", name + ".data", name + ".ovflow"
}

// Exists reports whether a relation with the given name has already been
// created.
func Exists(name string) bool {
	info, _, _ := fileNames(name)
	_, err := os.Stat(info)
	return err == nil
}

// Create makes a new relation on disk with nattrs attributes per tuple,
// an initial npages (= 2^depth) primary pages, initial directory depth
// depth, and a choice vector parsed from cv (spec section 6's textual
// form). The relation is written out and closed; callers must Open it to
// use it, matching the source's newRelation/closeRelation pairing.
func Create(name string, nattrs int, npages int64, depth int64, cv string, opts ...Option) error {
	if Exists(name) {
		return fmt.Errorf("linhash: relation %q already exists", name)
	}
	if nattrs <= 0 {
		return errors.New("linhash: nattrs must be positive")
	}
	chvec, err := ParseChVec(nattrs, cv)
	if err != nil {
		return err
	}

	infoName, dataName, ovflowName := fileNames(name)
	infoFile, err := os.OpenFile(infoName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer infoFile.Close()

	dataPager, err := pager.New(dataName)
	if err != nil {
		return err
	}
	for i := int64(0); i < npages; i++ {
		p, err := dataPager.GetNewPage()
		if err != nil {
			dataPager.Close()
			return err
		}
		newDataPage(p)
		dataPager.PutPage(p)
	}
	if err := dataPager.Close(); err != nil {
		return err
	}

	ovflowPager, err := pager.New(ovflowName)
	if err != nil {
		return err
	}
	if err := ovflowPager.Close(); err != nil {
		return err
	}

	r := &Relation{
		name:            name,
		nattrs:          nattrs,
		depth:           depth,
		sp:              0,
		npages:          npages,
		ntups:           0,
		cv:              chvec,
		insertThreshold: defaultThreshold(nattrs),
	}
	for _, opt := range opts {
		opt(r)
	}
	return writeInfo(infoFile, infoHeader{
		nattrs: int64(nattrs),
		depth:  depth,
		sp:     0,
		npages: npages,
		ntups:  0,
	}, chvec)
}

// Open opens an existing relation, in read-only mode if writable is false
// or read-write mode if writable is true.
func Open(name string, writable bool, opts ...Option) (*Relation, error) {
	infoName, dataName, ovflowName := fileNames(name)
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	infoFile, err := os.OpenFile(infoName, flag, 0666)
	if err != nil {
		return nil, fmt.Errorf("linhash: relation %q not found: %w", name, err)
	}
	h, cv, err := readInfo(infoFile)
	if err != nil {
		infoFile.Close()
		return nil, err
	}

	dataPager, err := pager.New(dataName)
	if err != nil {
		infoFile.Close()
		return nil, err
	}
	ovflowPager, err := pager.New(ovflowName)
	if err != nil {
		dataPager.Close()
		infoFile.Close()
		return nil, err
	}

	r := &Relation{
		name:            name,
		nattrs:          int(h.nattrs),
		depth:           h.depth,
		sp:              h.sp,
		npages:          h.npages,
		ntups:           h.ntups,
		cv:              cv,
		insertThreshold: defaultThreshold(int(h.nattrs)),
		writable:        writable,
		infoFile:        infoFile,
		data:            dataPager,
		ovflow:          ovflowPager,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close persists the relation's state (in write mode) and releases its
// backing files. In read-only mode the info file is simply discarded, as
// no in-memory state needed to be written back.
func (r *Relation) Close() error {
	var err error
	if r.writable {
		err = writeInfo(r.infoFile, infoHeader{
			nattrs: int64(r.nattrs),
			depth:  r.depth,
			sp:     r.sp,
			npages: r.npages,
			ntups:  r.ntups,
		}, r.cv)
	}
	if closeErr := r.infoFile.Close(); err == nil {
		err = closeErr
	}
	if closeErr := r.data.Close(); err == nil {
		err = closeErr
	}
	if closeErr := r.ovflow.Close(); err == nil {
		err = closeErr
	}
	return err
}

// NAttrs returns the number of attributes per tuple.
func (r *Relation) NAttrs() int { return r.nattrs }

// Depth returns the current directory depth.
func (r *Relation) Depth() int64 { return r.depth }

// SplitPointer returns the next bucket to be split.
func (r *Relation) SplitPointer() int64 { return r.sp }

// NumPages returns the number of primary data pages (buckets).
func (r *Relation) NumPages() int64 { return r.npages }

// NumTuples returns the total number of tuples inserted.
func (r *Relation) NumTuples() int64 { return r.ntups }

// ChoiceVector returns the relation's choice vector.
func (r *Relation) ChoiceVector() ChVec { return r.cv }

// bucketAddress computes the primary page id a composite hash addresses,
// given the relation's current depth and split pointer (spec section 4.3).
func bucketAddress(h bits.Word, depth, sp int64) int64 {
	if depth == 0 {
		return 0
	}
	p := int64(bits.Lower(h, int(depth)))
	if p < sp {
		p = int64(bits.Lower(h, int(depth)+1))
	}
	return p
}

// Insert adds tuple t to the relation, returning the id of the primary
// page (bucket) it was addressed to — even if it physically landed in an
// overflow page. It returns an error, leaving the relation's state
// unchanged, if t doesn't have exactly NAttrs() attributes or if it is too
// large to fit in a freshly allocated page.
func (r *Relation) Insert(t string) (int64, error) {
	if !r.writable {
		return NoPage, errors.New("linhash: relation is not open for writing")
	}
	attrs, err := splitTuple(t, r.nattrs)
	if err != nil {
		return NoPage, err
	}
	if int64(len(t))+1 > tupleAreaSize {
		return NoPage, fmt.Errorf("linhash: tuple %q is too large to fit in a page", t)
	}

	if r.insertions >= r.insertThreshold {
		if err := r.split(); err != nil {
			return NoPage, err
		}
		r.sp++
		if r.sp == int64(1)<<uint(r.depth) {
			r.sp = 0
			r.depth++
		}
		r.insertions = 0
	}

	h := compositeHash(r.cv, attrs)
	p := bucketAddress(h, r.depth, r.sp)

	if err := r.insertInto(p, t); err != nil {
		return NoPage, err
	}
	r.ntups++
	r.insertions++
	return p, nil
}

// insertInto appends t to primary page p, extending its overflow chain if
// the primary page (and every existing overflow page) is full.
func (r *Relation) insertInto(p int64, t string) error {
	page, err := r.data.GetPage(p)
	if err != nil {
		return err
	}
	defer r.data.PutPage(page)

	if addToPage(page, t) {
		return nil
	}

	if pageOvflow(page) == NoPage {
		newID, err := r.allocOvflowPage()
		if err != nil {
			return err
		}
		newPage, err := r.ovflow.GetPage(newID)
		if err != nil {
			return err
		}
		defer r.ovflow.PutPage(newPage)
		if !addToPage(newPage, t) {
			return fmt.Errorf("linhash: tuple %q does not fit in a fresh overflow page", t)
		}
		pageSetOvflow(page, newID)
		return nil
	}

	// Walk the overflow chain until a link has room, tracking the tail so
	// we can extend the chain if none does.
	var prevID int64 = NoPage
	curID := pageOvflow(page)
	for curID != NoPage {
		curPage, err := r.ovflow.GetPage(curID)
		if err != nil {
			return err
		}
		if addToPage(curPage, t) {
			r.ovflow.PutPage(curPage)
			return nil
		}
		prevID = curID
		curID = pageOvflow(curPage)
		r.ovflow.PutPage(curPage)
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
		return fmt.Errorf("linhash: tuple %q does not fit in a fresh overflow page", t)
	}
	r.ovflow.PutPage(newPage)

	prevPage, err := r.ovflow.GetPage(prevID)
	if err != nil {
		return err
	}
	pageSetOvflow(prevPage, newID)
	r.ovflow.PutPage(prevPage)
	return nil
}

// allocOvflowPage allocates and initializes a new, empty overflow page,
// returning its id. The returned page is not pinned.
func (r *Relation) allocOvflowPage() (int64, error) {
	p, err := r.ovflow.GetNewPage()
	if err != nil {
		return NoPage, err
	}
	newDataPage(p)
	id := p.GetPageNum()
	r.ovflow.PutPage(p)
	return id, nil
}
