package backup

// KeyValues is a tag key with an optional list of acceptable values. An
// empty value list accepts any value as long as the key is present.
type KeyValues struct {
	Key    string
	Values []string
}

// Filter is a set of tag-based selection rules applied to discovered
// backups. The zero value matches everything.
//
// The rules compose as follows:
//
//   - AnyKeys: each entry is a set of tag keys; at least one key from every
//     set must be present (OR within a set, AND across sets).
//   - NoKeys: none of these tag keys may be present.
//   - KeyValues: every entry's key must be present and, when the entry lists
//     values, the tag's value must be one of them.
type Filter struct {
	AnyKeys   [][]string
	NoKeys    []string
	KeyValues []KeyValues
}

// Empty reports whether the filter has no rules at all.
func (f *Filter) Empty() bool {
	return len(f.AnyKeys) == 0 && len(f.NoKeys) == 0 && len(f.KeyValues) == 0
}

// Match reports whether a tag map satisfies every rule in the filter.
func (f *Filter) Match(tags map[string]string) bool {
	for _, set := range f.AnyKeys {
		found := false
		for _, key := range set {
			if _, ok := tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, key := range f.NoKeys {
		if _, ok := tags[key]; ok {
			return false
		}
	}

	for _, kv := range f.KeyValues {
		val, ok := tags[kv.Key]
		if !ok {
			return false
		}
		if len(kv.Values) == 0 {
			continue
		}
		allowed := false
		for _, want := range kv.Values {
			if val == want {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
