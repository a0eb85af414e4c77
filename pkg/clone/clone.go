// Package clone takes deep snapshots of values. References that are
// shared or cyclic in the original are shared or cyclic in the copy.
//
// Unexported struct fields are copied shallowly: reflection can read
// them as part of their struct, but cannot set them one by one.
package clone

import (
	"reflect"

	"github.com/fluxcd/graphdiff/pkg/circular"
)

// Clone returns a deep copy of v.
func Clone(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return Value(reflect.ValueOf(v)).Interface()
}

// Value returns a deep copy of v. The result is not addressable.
func Value(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	c := cloner{copies: make(map[circular.Ref]reflect.Value)}
	return c.clone(v)
}

// cloner holds state for a single copy, mapping every reference
// already met to its copy.
type cloner struct {
	copies map[circular.Ref]reflect.Value
}

func (c cloner) clone(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		ref, _ := circular.RefOf(v)
		if cp, ok := c.copies[ref]; ok {
			return cp
		}
		cp := reflect.New(v.Type().Elem())
		c.copies[ref] = cp
		c.into(cp.Elem(), v.Elem())
		return cp

	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		ref, _ := circular.RefOf(v)
		if cp, ok := c.copies[ref]; ok {
			return cp
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.copies[ref] = cp
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(c.clone(iter.Key()), c.clone(iter.Value()))
		}
		return cp

	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		ref, _ := circular.RefOf(v)
		if cp, ok := c.copies[ref]; ok {
			return cp
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.copies[ref] = cp
		for i := 0; i < v.Len(); i++ {
			c.into(cp.Index(i), v.Index(i))
		}
		return cp

	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(c.clone(v.Elem()))
		return cp

	case reflect.Struct, reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		c.into(cp, v)
		return cp
	}
	return v
}

// into copies src into the settable dst.
func (c cloner) into(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Struct:
		dst.Set(src)
		t := src.Type()
		for i := 0; i < src.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue
			}
			c.into(dst.Field(i), src.Field(i))
		}
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			c.into(dst.Index(i), src.Index(i))
		}
	default:
		dst.Set(c.clone(src))
	}
}
