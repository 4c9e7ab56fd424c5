package store

import "encoding/binary"

// ElementCodec encodes one element into a fixed number of bytes. Encoded
// bytes feed the content hash and Flush.
type ElementCodec[T any] interface {
	Size() int
	Put(b []byte, v T)
	Get(b []byte) T
}

// ByteCodec stores uint8 elements as themselves.
type ByteCodec struct{}

func (ByteCodec) Size() int             { return 1 }
func (ByteCodec) Put(b []byte, v uint8) { b[0] = v }
func (ByteCodec) Get(b []byte) uint8    { return b[0] }

// Uint32Codec stores uint32 elements little endian.
type Uint32Codec struct{}

func (Uint32Codec) Size() int              { return 4 }
func (Uint32Codec) Put(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func (Uint32Codec) Get(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }

// encodeInto writes values back to back into dst, growing it as needed.
func encodeInto[T any](codec ElementCodec[T], dst []byte, values []T) []byte {
	size := codec.Size()
	need := len(values) * size
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for i, v := range values {
		codec.Put(dst[i*size:], v)
	}
	return dst
}
