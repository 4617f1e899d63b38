package linhash

import (
	"encoding/binary"

	"mahash/pkg/pager"
)

// This file adapts the teacher's bucket.go idiom — small header fields
// packed at the front of a pager.Page, read/written with
// encoding/binary.{Varint,PutVarint} — to this spec's page layout: instead
// of fixed-width key/value entries, each page packs a variable number of
// NUL-terminated tuple strings after its header.

// readHeaderField reads a binary.Varint-encoded int64 from the page at the
// given header offset/size.
func readHeaderField(page *pager.Page, offset, size int64) int64 {
	v, _ := binary.Varint(page.GetData()[offset : offset+size])
	return v
}

// writeHeaderField writes v as a binary.Varint-encoded int64 into the page
// at the given header offset/size, marking the page dirty.
func writeHeaderField(page *pager.Page, offset, size, v int64) {
	buf := make([]byte, size)
	binary.PutVarint(buf, v)
	page.Update(buf, offset, size)
}

// newDataPage initializes a freshly allocated page's header: empty, with no
// overflow link.
func newDataPage(page *pager.Page) {
	writeHeaderField(page, freeOffsetOffset, freeOffsetSize, 0)
	writeHeaderField(page, nTuplesOffset, nTuplesSize, 0)
	writeHeaderField(page, ovflowOffset, ovflowSize, NoPage)
}

// pageFree returns the offset of the first free byte in the page's tuple
// area — equivalently, the number of bytes currently occupied by packed
// tuple strings.
func pageFree(page *pager.Page) int64 {
	return readHeaderField(page, freeOffsetOffset, freeOffsetSize)
}

// decreasePageFree moves the free-offset back by n bytes, used when
// compacting a page after a tuple is removed during a split.
func decreasePageFree(page *pager.Page, n int64) {
	writeHeaderField(page, freeOffsetOffset, freeOffsetSize, pageFree(page)-n)
}

// pageNTuples returns the number of tuples currently packed into the page.
func pageNTuples(page *pager.Page) int64 {
	return readHeaderField(page, nTuplesOffset, nTuplesSize)
}

// decrementPageTuples decrements the page's tuple count by one.
func decrementPageTuples(page *pager.Page) {
	writeHeaderField(page, nTuplesOffset, nTuplesSize, pageNTuples(page)-1)
}

// pageOvflow returns the id of the next page in this bucket's overflow
// chain, or NoPage if this is the chain's last link.
func pageOvflow(page *pager.Page) int64 {
	return readHeaderField(page, ovflowOffset, ovflowSize)
}

// pageSetOvflow links page to the next page in its bucket's overflow chain.
func pageSetOvflow(page *pager.Page, next int64) {
	writeHeaderField(page, ovflowOffset, ovflowSize, next)
}

// pageData returns the page's packed-tuple region: pageFree(page) bytes of
// NUL-terminated tuple strings, followed by free space.
func pageData(page *pager.Page) []byte {
	return page.GetData()[pageHeaderSize:]
}

// addToPage attempts to append tuple t (plus its NUL terminator) to page,
// returning false if there isn't enough free space.
func addToPage(page *pager.Page, t string) bool {
	free := pageFree(page)
	need := int64(len(t)) + 1
	if free+need > tupleAreaSize {
		return false
	}
	packed := make([]byte, need)
	copy(packed, t)
	page.Update(packed, pageHeaderSize+free, need)
	writeHeaderField(page, freeOffsetOffset, freeOffsetSize, free+need)
	writeHeaderField(page, nTuplesOffset, nTuplesSize, pageNTuples(page)+1)
	return true
}

// compactPage removes the removedLen bytes at [at, at+removedLen) from the
// page's packed tuple region by shifting everything after them back by
// removedLen, then shrinks the free offset and tuple count to match. Used
// while splitting a bucket to drop a tuple that moved to the new bucket,
// in place, without disturbing the tuples before it.
func compactPage(page *pager.Page, at, removedLen int64) {
	free := pageFree(page)
	tailLen := free - (at + removedLen)
	tail := make([]byte, tailLen)
	copy(tail, pageData(page)[at+removedLen:free])
	page.Update(tail, pageHeaderSize+at, tailLen)
	decreasePageFree(page, removedLen)
	decrementPageTuples(page)
}
