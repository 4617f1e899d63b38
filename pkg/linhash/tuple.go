package linhash

import (
	"fmt"
	"strings"

	"mahash/pkg/bits"
)

// Wildcard is the query-field value that matches any attribute value.
const Wildcard = "?"

// splitTuple parses t into exactly nattrs comma-separated attribute
// strings, erroring if the count doesn't match.
func splitTuple(t string, nattrs int) ([]string, error) {
	attrs := strings.Split(t, ",")
	if len(attrs) != nattrs {
		return nil, fmt.Errorf("linhash: tuple %q has %d attributes, want %d", t, len(attrs), nattrs)
	}
	for _, a := range attrs {
		if a == "" {
			return nil, fmt.Errorf("linhash: tuple %q has an empty attribute", t)
		}
	}
	return attrs, nil
}

// compositeHash assembles the MaxBits-wide composite hash of a tuple's
// attributes according to the choice vector cv: composite bit i equals bit
// cv[i].Bit of the hash of attribute cv[i].Att's value.
func compositeHash(cv ChVec, attrs []string) bits.Word {
	attrHashes := make([]bits.Word, len(attrs))
	for j, a := range attrs {
		attrHashes[j] = hashBytes([]byte(a))
	}
	var h bits.Word
	for i, item := range cv {
		if bits.IsSet(attrHashes[item.Att], item.Bit) {
			h = bits.Set(h, i)
		}
	}
	return h
}

// tupleHash parses and hashes a tuple in one step.
func tupleHash(cv ChVec, nattrs int, t string) (bits.Word, error) {
	attrs, err := splitTuple(t, nattrs)
	if err != nil {
		return 0, err
	}
	return compositeHash(cv, attrs), nil
}

// tupleMatch reports whether tuple attributes match a parsed query's
// fields: every non-wildcard field must equal the tuple's attribute at that
// position exactly.
func tupleMatch(tupleAttrs, queryFields []string) bool {
	for j, q := range queryFields {
		if q == Wildcard {
			continue
		}
		if tupleAttrs[j] != q {
			return false
		}
	}
	return true
}

// splitQuery parses a query string into exactly nattrs fields, each either
// a literal attribute value or Wildcard.
func splitQuery(q string, nattrs int) ([]string, error) {
	fields := strings.Split(q, ",")
	if len(fields) != nattrs {
		return nil, fmt.Errorf("linhash: query %q has %d fields, want %d", q, len(fields), nattrs)
	}
	return fields, nil
}
