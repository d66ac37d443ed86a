// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-perfcounters.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package value defines the mergeable counter-value algebra: the
// observable output of a counter at a point in time, and the merge laws
// used to combine values reported by several processes into one.
package value

import "fmt"

// ErrIncompatibleMerge is returned when two counter values for the same
// key cannot be merged because they are not the same mergeable kind.
var ErrIncompatibleMerge = fmt.Errorf("value: incompatible merge")

// Value is a single counter's observable output. Implementations must be
// mergeable with other values of the same concrete type; merging across
// different concrete types is always an error.
type Value interface {
	// Number returns the value as a plain float64, or false if the value
	// is the "empty" sentinel (no samples contributed).
	Number() (float64, bool)

	// MergeWith folds other into this value. other must be the same
	// concrete type, or MergeWith returns ErrIncompatibleMerge.
	MergeWith(other Value) error
}

// Accumulative is the sum of non-null addends; merging with an absent
// value is a no-op (null-absorbing).
type Accumulative struct {
	Sum   float64
	Empty bool
}

// NewAccumulative returns a populated Accumulative value.
func NewAccumulative(sum float64) *Accumulative {
	return &Accumulative{Sum: sum}
}

// Number implements Value.
func (a *Accumulative) Number() (float64, bool) {
	if a.Empty {
		return 0, false
	}
	return a.Sum, true
}

// MergeWith implements Value.
func (a *Accumulative) MergeWith(other Value) error {
	o, ok := other.(*Accumulative)
	if !ok {
		return ErrIncompatibleMerge
	}
	if o.Empty {
		return nil
	}
	if a.Empty {
		a.Sum = o.Sum
		a.Empty = false
		return nil
	}
	a.Sum += o.Sum
	return nil
}

// weighted is one (value, weight) sample folded into an Average.
type weighted struct {
	Val    float64
	Weight float64
}

// Average carries weighted (value, weight) pairs; merging concatenates
// the pair lists so the weighted mean stays exact regardless of how many
// times values have already been merged. The pairs are exported fields so
// an Average can be carried over the cluster wire by encoding/gob.
type Average struct {
	Pairs []weighted
}

// NewAverage returns an Average seeded with a single (value, weight)
// sample. weight is normally the sample count the value was already
// averaged over (1 for a single observation).
func NewAverage(v float64, weight float64) *Average {
	return &Average{Pairs: []weighted{{Val: v, Weight: weight}}}
}

// Number implements Value. Returns false if no samples were ever added.
func (a *Average) Number() (float64, bool) {
	if len(a.Pairs) == 0 {
		return 0, false
	}
	var sumW, sumVW float64
	for _, p := range a.Pairs {
		sumW += p.Weight
		sumVW += p.Val * p.Weight
	}
	if sumW == 0 {
		return 0, false
	}
	return sumVW / sumW, true
}

// MergeWith implements Value.
func (a *Average) MergeWith(other Value) error {
	o, ok := other.(*Average)
	if !ok {
		return ErrIncompatibleMerge
	}
	a.Pairs = append(a.Pairs, o.Pairs...)
	return nil
}

// Max merges by selecting the maximal value, ignoring absent operands.
type Max struct {
	Val   float64
	Empty bool
}

// NewMax returns a populated Max value.
func NewMax(v float64) *Max {
	return &Max{Val: v}
}

// Number implements Value.
func (m *Max) Number() (float64, bool) {
	if m.Empty {
		return 0, false
	}
	return m.Val, true
}

// MergeWith implements Value.
func (m *Max) MergeWith(other Value) error {
	o, ok := other.(*Max)
	if !ok {
		return ErrIncompatibleMerge
	}
	if o.Empty {
		return nil
	}
	if m.Empty || o.Val > m.Val {
		m.Val = o.Val
		m.Empty = false
	}
	return nil
}

// Min merges by selecting the minimal value, ignoring absent operands.
type Min struct {
	Val   float64
	Empty bool
}

// NewMin returns a populated Min value.
func NewMin(v float64) *Min {
	return &Min{Val: v}
}

// Number implements Value.
func (m *Min) Number() (float64, bool) {
	if m.Empty {
		return 0, false
	}
	return m.Val, true
}

// MergeWith implements Value.
func (m *Min) MergeWith(other Value) error {
	o, ok := other.(*Min)
	if !ok {
		return ErrIncompatibleMerge
	}
	if o.Empty {
		return nil
	}
	if m.Empty || o.Val < m.Val {
		m.Val = o.Val
		m.Empty = false
	}
	return nil
}
