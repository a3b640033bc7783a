package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// DomainDefinition is the domain prefix for rule content hashes. The version
// suffix allows a future algorithm migration without colliding with old
// hashes.
const DomainDefinition = "scribe/rule/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash computes the stable identity hash of a rule definition.
//
// The hash covers everything that affects the installed artifact: rule name,
// operation, effective label, the watch-set, and the entity's name, column
// list, and primary key. Watch-set order does not affect the hash; renaming
// a column, changing the label, or adding a watched column does.
func ContentHash(d Definition) (string, error) {
	watch := append([]string(nil), d.Watch...)
	sort.Strings(watch)

	cols := make([]any, len(d.Entity.Columns))
	for i, c := range d.Entity.Columns {
		cols[i] = map[string]any{
			"name": c.Name,
			"type": c.Type,
		}
	}

	obj := map[string]any{
		"name":      d.Name,
		"operation": string(d.Operation),
		"label":     d.EffectiveLabel(),
		"watch":     watch,
		"entity": map[string]any{
			"name":        d.Entity.Name,
			"columns":     cols,
			"primary_key": d.Entity.PrimaryKey,
		},
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when the definition is known to be valid.
func MustContentHash(d Definition) string {
	h, err := ContentHash(d)
	if err != nil {
		panic(err)
	}
	return h
}
