package intent

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Wire versions. structVersion bumps whenever a field is added or
// removed from the top-level record shape; compatVersion is the oldest
// decoder version that can still make sense of the payload, and bumps
// only when older decoders no longer can. Decode rejects a record whose
// struct or compat version is newer than its own.
const (
	structVersion  = 1
	compatVersion  = 1
	layoutV1       = 1
	layoutV2       = 2 // adds the pool-namespace field
)

// CorruptIntentError reports that a journal record could not be decoded.
// The offset is the journal position the record started at, so the
// caller can log exactly what was skipped.
type CorruptIntentError struct {
	Offset uint64
	Reason string
}

// Error implements the error interface.
func (e *CorruptIntentError) Error() string {
	return Error.New("corrupt intent at offset %d: %s", e.Offset, e.Reason).Error()
}

// Encode serializes an Intent as: a two-byte (struct, compat) version
// pair, a four-byte little-endian payload length, then the payload
// fields in order. encode(decode(x)) == x for every Intent this package
// produces.
func Encode(in Intent) ([]byte, error) {
	var payload bytes.Buffer

	if err := writeUint8(&payload, uint8(in.Action)); err != nil {
		return nil, err
	}
	if err := writeUint64(&payload, in.Ino); err != nil {
		return nil, err
	}
	if err := writeUint64(&payload, in.Size); err != nil {
		return nil, err
	}
	if err := encodeLayout(&payload, in.Layout); err != nil {
		return nil, err
	}
	if err := encodeInt64List(&payload, in.OldPools); err != nil {
		return nil, err
	}
	if err := encodeSnapContext(&payload, in.Snapc); err != nil {
		return nil, err
	}
	if err := encodeFragTree(&payload, in.FragTree); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteByte(structVersion)
	out.WriteByte(compatVersion)
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(payload.Len()))
	out.Write(length[:])
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}

// Decode parses a record produced by Encode (or by an older encoder
// using the legacy (1,1) version pair, per §6). offset identifies the
// journal position of the record, used only to annotate decode errors.
func Decode(b []byte, offset uint64) (Intent, error) {
	var zero Intent
	if len(b) < 6 {
		return zero, &CorruptIntentError{Offset: offset, Reason: "record shorter than header"}
	}

	sv, cv := b[0], b[1]
	if sv > structVersion {
		return zero, &CorruptIntentError{Offset: offset, Reason: "unknown future struct version"}
	}
	if cv > compatVersion {
		return zero, &CorruptIntentError{Offset: offset, Reason: "unknown future compat version"}
	}

	length := binary.LittleEndian.Uint32(b[2:6])
	payload := b[6:]
	if uint32(len(payload)) < length {
		return zero, &CorruptIntentError{Offset: offset, Reason: "truncated payload"}
	}
	// Decoding stops once every field this decoder knows about has been
	// read; bytes the length prefix covers beyond those fields are never
	// touched.
	r := bytes.NewReader(payload[:length])

	var in Intent
	action, err := readUint8(r)
	if err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "action: " + err.Error()}
	}
	in.Action = Action(action)

	if in.Ino, err = readUint64(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "ino: " + err.Error()}
	}
	if in.Size, err = readUint64(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "size: " + err.Error()}
	}
	if in.Layout, err = decodeLayout(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "layout: " + err.Error()}
	}
	if in.OldPools, err = decodeInt64List(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "old_pools: " + err.Error()}
	}
	if in.Snapc, err = decodeSnapContext(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "snapc: " + err.Error()}
	}
	if in.FragTree, err = decodeFragTree(r); err != nil {
		return zero, &CorruptIntentError{Offset: offset, Reason: "fragtree: " + err.Error()}
	}

	return in, nil
}

func encodeLayout(w *bytes.Buffer, l Layout) error {
	version := uint8(layoutV1)
	if l.HasNamespace() {
		version = layoutV2
	}
	w.WriteByte(version)
	if err := writeUint64(w, l.StripeUnit); err != nil {
		return err
	}
	if err := writeUint32(w, l.StripeCount); err != nil {
		return err
	}
	if err := writeUint64(w, l.ObjectSize); err != nil {
		return err
	}
	if err := writeInt64(w, l.PoolID); err != nil {
		return err
	}
	if version >= layoutV2 {
		if err := encodeString(w, l.Namespace); err != nil {
			return err
		}
	}
	return nil
}

func decodeLayout(r *bytes.Reader) (Layout, error) {
	var l Layout
	version, err := readUint8(r)
	if err != nil {
		return l, err
	}
	if l.StripeUnit, err = readUint64(r); err != nil {
		return l, err
	}
	if l.StripeCount, err = readUint32(r); err != nil {
		return l, err
	}
	if l.ObjectSize, err = readUint64(r); err != nil {
		return l, err
	}
	if l.PoolID, err = readInt64(r); err != nil {
		return l, err
	}
	if version >= layoutV2 {
		if l.Namespace, err = decodeString(r); err != nil {
			return l, err
		}
	}
	return l, nil
}

func encodeInt64List(w *bytes.Buffer, xs []int64) error {
	if err := writeUint32(w, uint32(len(xs))); err != nil {
		return err
	}
	for _, x := range xs {
		if err := writeInt64(w, x); err != nil {
			return err
		}
	}
	return nil
}

func decodeInt64List(r *bytes.Reader) ([]int64, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int64, n)
	for i := range out {
		if out[i], err = readInt64(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeSnapContext(w *bytes.Buffer, s SnapContext) error {
	if err := writeUint64(w, s.Seq); err != nil {
		return err
	}
	return encodeInt64List(w, s.Snaps)
}

func decodeSnapContext(r *bytes.Reader) (SnapContext, error) {
	var s SnapContext
	seq, err := readUint64(r)
	if err != nil {
		return s, err
	}
	s.Seq = seq
	if s.Snaps, err = decodeInt64List(r); err != nil {
		return s, err
	}
	return s, nil
}

func encodeFragTree(w *bytes.Buffer, t FragTree) error {
	if err := writeUint32(w, uint32(len(t.Leaves))); err != nil {
		return err
	}
	for _, f := range t.Leaves {
		if err := writeUint32(w, f.Bits); err != nil {
			return err
		}
		if err := writeUint32(w, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func decodeFragTree(r *bytes.Reader) (FragTree, error) {
	n, err := readUint32(r)
	if err != nil {
		return FragTree{}, err
	}
	if n == 0 {
		return FragTree{}, nil
	}
	leaves := make([]Frag, n)
	for i := range leaves {
		if leaves[i].Bits, err = readUint32(r); err != nil {
			return FragTree{}, err
		}
		if leaves[i].Value, err = readUint32(r); err != nil {
			return FragTree{}, err
		}
	}
	return FragTree{Leaves: leaves}, nil
}

func encodeString(w *bytes.Buffer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	w.WriteString(s)
	return nil
}

func decodeString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeUint8(w *bytes.Buffer, v uint8) error {
	return w.WriteByte(v)
}

func writeUint32(w *bytes.Buffer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w *bytes.Buffer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeInt64(w *bytes.Buffer, v int64) error {
	return writeUint64(w, uint64(v))
}

func readUint8(r *bytes.Reader) (uint8, error) {
	return r.ReadByte()
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}
