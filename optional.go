package cborstream

import (
	"math/big"

	"github.com/x448/float16"
)

// OptionalValue decorates a DataEvent so that null reads as an absent
// value instead of failing every typed accessor. For any other event the
// accessors delegate unchanged, reporting present=true on success.
//
// This keeps "the field was null" distinct from "the field was the wrong
// type" without a second event representation.
type OptionalValue struct {
	ev *DataEvent
}

// Event returns the wrapped event.
func (o OptionalValue) Event() *DataEvent { return o.ev }

// Present reports whether the wrapped event is anything but null.
func (o OptionalValue) Present() bool { return !o.ev.IsNull() }

func (o OptionalValue) Int32() (v int32, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Int32()
	return v, err == nil, err
}

func (o OptionalValue) Int64() (v int64, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Int64()
	return v, err == nil, err
}

func (o OptionalValue) BigInt() (v *big.Int, present bool, err error) {
	if o.ev.IsNull() {
		return nil, false, nil
	}
	v, err = o.ev.BigInt()
	return v, err == nil, err
}

func (o OptionalValue) Count() (v int64, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Count()
	return v, err == nil, err
}

func (o OptionalValue) Float16() (v float16.Float16, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Float16()
	return v, err == nil, err
}

func (o OptionalValue) Float32() (v float32, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Float32()
	return v, err == nil, err
}

func (o OptionalValue) Float64() (v float64, present bool, err error) {
	if o.ev.IsNull() {
		return 0, false, nil
	}
	v, err = o.ev.Float64()
	return v, err == nil, err
}

func (o OptionalValue) Bool() (v bool, present bool, err error) {
	if o.ev.IsNull() {
		return false, false, nil
	}
	v, err = o.ev.Bool()
	return v, err == nil, err
}

func (o OptionalValue) Bytes() (b []byte, present bool) {
	if o.ev.IsNull() {
		return nil, false
	}
	b = o.ev.Bytes()
	return b, b != nil
}

func (o OptionalValue) Text() (s string, present bool, err error) {
	if o.ev.IsNull() {
		return "", false, nil
	}
	s, err = o.ev.Text()
	return s, err == nil, err
}

func (o OptionalValue) IsNull() bool      { return o.ev.IsNull() }
func (o OptionalValue) IsUndefined() bool { return o.ev.IsUndefined() }
func (o OptionalValue) IsBreak() bool     { return o.ev.IsBreak() }

func (o OptionalValue) IsIndefiniteStart() bool {
	return o.ev.IsIndefiniteStart()
}
