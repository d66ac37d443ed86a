package value

// Collection maps a counter name to its current value. Merge is pairwise
// by key: a collision requires both sides be mergeable of the same kind,
// otherwise the merge fails with ErrIncompatibleMerge and names the key.
type Collection map[string]Value

// New returns an empty Collection.
func New() Collection {
	return make(Collection)
}

// MergeWith folds other into c in place. Keys present only in other are
// copied across; keys present in both are merged with Value.MergeWith.
func (c Collection) MergeWith(other Collection) error {
	for k, v := range other {
		mv, ok := c[k]
		if !ok {
			c[k] = v
			continue
		}
		if err := mv.MergeWith(v); err != nil {
			return &MergeError{Key: k, Err: err}
		}
	}
	return nil
}

// Numbers flattens the collection to plain name->number-or-nil, the shape
// written to reporters. Empty values are represented by their absence
// from the "ok" side of Value.Number and surfaced as nil here.
func (c Collection) Numbers() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		if n, ok := v.Number(); ok {
			out[k] = n
		} else {
			out[k] = nil
		}
	}
	return out
}

// MergeError wraps ErrIncompatibleMerge with the offending key.
type MergeError struct {
	Key string
	Err error
}

func (e *MergeError) Error() string {
	return "value: cannot merge collection key " + e.Key + ": " + e.Err.Error()
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
