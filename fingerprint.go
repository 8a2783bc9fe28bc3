package goshape

// Fingerprint identifies a subset of a canonical schema's fields:
// "<schema name>_<key>", where key has one character per canonical field,
// the field's first letter in lower case when absent and upper case when
// present. Fields sharing a first letter are distinguished by position only.
type Fingerprint string

// Fingerprint encodes the subset of canonical fields named by names. Matching
// is case-insensitive; names that are not canonical fields are ignored, and
// neither order nor repetition affects the result.
func (s *CanonicalSchema) Fingerprint(names ...string) Fingerprint {
	key := make([]rune, len(s.base))
	copy(key, s.base)
	for _, n := range names {
		if i, ok := s.Index(n); ok {
			key[i] = upperFirst(s.fields[i].Name)
		}
	}
	return Fingerprint(s.name + "_" + string(key))
}
