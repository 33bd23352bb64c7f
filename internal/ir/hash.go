package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows a future algorithm change.
const (
	DomainChange = "obstore/change/v1"
	DomainState  = "obstore/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator removes any ambiguity at the domain/data boundary.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// itemObject renders an item for canonical marshaling.
func itemObject(it *Item) IRObject {
	fields := it.Fields
	if fields == nil {
		fields = IRObject{}
	}
	return IRObject{
		"index":  IRInt(it.Index),
		"fields": fields,
	}
}

// ChangeDigest computes the content address of a journaled change.
// An absent side is omitted from the hashed object rather than written as
// null, keeping it distinct from any field value.
func ChangeDigest(session string, seq int64, c Change) (string, error) {
	obj := IRObject{
		"session": IRString(session),
		"seq":     IRInt(seq),
	}
	if c.Previous != nil {
		obj["previous"] = itemObject(c.Previous)
	}
	if c.Current != nil {
		obj["current"] = itemObject(c.Current)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ChangeDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChange, canonical), nil
}

// StateDigest computes a digest over a sequence of live items in the order
// given. Two stores with the same live items in index order digest equally.
func StateDigest(items []*Item) (string, error) {
	arr := make(IRArray, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		arr = append(arr, itemObject(it))
	}

	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("StateDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}
