package spans

import (
	"encoding/json"
	"iter"
)

// Features is an insertion-ordered string map. Setting an existing key keeps
// its original position.
type Features struct {
	keys   []string
	values map[string]string
}

// NewFeatures returns an empty feature map.
func NewFeatures() *Features {
	return &Features{values: make(map[string]string)}
}

// FeaturesOf builds a feature map from alternating key, value arguments.
// A trailing key without a value is ignored.
func FeaturesOf(kv ...string) *Features {
	f := NewFeatures()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

// Set stores value under key.
func (f *Features) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value for key.
func (f *Features) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Delete removes key.
func (f *Features) Delete(key string) {
	if f == nil {
		return
	}
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of features.
func (f *Features) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in insertion order.
func (f *Features) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// All iterates key/value pairs in insertion order.
func (f *Features) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if f == nil {
			return
		}
		for _, k := range f.keys {
			if !yield(k, f.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (f *Features) Clone() *Features {
	c := NewFeatures()
	for k, v := range f.All() {
		c.Set(k, v)
	}
	return c
}

// Equal reports whether both maps hold the same pairs, ignoring order.
func (f *Features) Equal(other *Features) bool {
	if f.Len() != other.Len() {
		return false
	}
	for k, v := range f.All() {
		if ov, ok := other.Get(k); !ok || ov != v {
			return false
		}
	}
	return true
}

type featurePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MarshalJSON encodes the map as an ordered list of key/value objects.
func (f *Features) MarshalJSON() ([]byte, error) {
	pairs := make([]featurePair, 0, f.Len())
	for k, v := range f.All() {
		pairs = append(pairs, featurePair{Key: k, Value: v})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON accepts either the ordered list form or a plain JSON object.
// Plain objects lose their order (encoding/json decodes them into a map).
func (f *Features) UnmarshalJSON(data []byte) error {
	*f = Features{values: make(map[string]string)}

	var pairs []featurePair
	if err := json.Unmarshal(data, &pairs); err == nil {
		for _, p := range pairs {
			f.Set(p.Key, p.Value)
		}
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, k := range sortedKeys(m) {
		f.Set(k, m[k])
	}
	return nil
}
