package key

import (
	"crypto/sha256"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Canonical returns the canonical encoding of a terminal value. The
// dynamic type is part of the encoding, so int(1) and int64(1) differ.
// Pointers are followed, since two snapshots never share the address
// of an equal scalar.
func Canonical(typ reflect.Type, value interface{}) string {
	v := reflect.ValueOf(value)
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}

	w := newCanonWriter()
	w.WriteString(`{"leaf":`)
	if v.IsValid() {
		w.WriteQuoted(typeName(v.Type()))
	} else {
		w.WriteQuoted(typeName(typ))
	}
	w.WriteString(`,"value":`)
	w.WriteString(scalarString(v))
	w.WriteByte('}')
	return string(w.Bytes())
}

func scalarString(v reflect.Value) string {
	if !v.IsValid() {
		return "null"
	}
	// times that are Equal are the same instant, whatever the location
	if v.Type() == timeType && v.CanInterface() {
		return strconv.Quote(v.Interface().(time.Time).UTC().Format(time.RFC3339Nano))
	}
	switch v.Kind() {
	case reflect.String:
		return strconv.Quote(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		return fmt.Sprintf("[%s,%s]",
			strconv.FormatFloat(real(c), 'g', -1, 64),
			strconv.FormatFloat(imag(c), 'g', -1, 64))
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return "null"
		}
		return fmt.Sprintf(`"0x%x"`, v.Pointer())
	}
	if v.CanInterface() {
		return strconv.Quote(fmt.Sprintf("%#v", v.Interface()))
	}
	return `"?"`
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

func nameString(name interface{}) string {
	if name == nil {
		return "null"
	}
	return fmt.Sprint(name)
}

// encodeUnordered writes child fingerprints sorted, keeping duplicates.
func encodeUnordered(children []Key, w *canonWriter) {
	fps := make([]string, 0, len(children))
	for _, c := range children {
		fps = append(fps, fingerprintOrNil(c))
	}
	sort.Strings(fps)
	w.WriteByte('[')
	for i, fp := range fps {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(fp)
	}
	w.WriteByte(']')
}

// canonWriter is a simple buffer for building canonical representations
type canonWriter struct {
	buf []byte
}

func newCanonWriter() *canonWriter {
	return &canonWriter{buf: make([]byte, 0, 256)}
}

func (w *canonWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *canonWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

func (w *canonWriter) WriteQuoted(s string) {
	w.buf = strconv.AppendQuote(w.buf, s)
}

func (w *canonWriter) Bytes() []byte {
	return w.buf
}

// Sum is the hex sha256 of the buffer.
func (w *canonWriter) Sum() string {
	sum := sha256.Sum256(w.buf)
	return fmt.Sprintf("%x", sum[:])
}
