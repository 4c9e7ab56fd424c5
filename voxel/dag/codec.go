package dag

import "github.com/joshuapare/voxkit/internal/format"

// nodeCodec stores node records in the format layout. The node store never
// hands out pointers above format.MaxPointer, so encoding cannot fail.
type nodeCodec struct{}

func (nodeCodec) Size() int { return format.NodeRecordSize }

func (nodeCodec) Put(b []byte, n format.Node) {
	if err := format.EncodeNode(b, n); err != nil {
		panic(err)
	}
}

func (nodeCodec) Get(b []byte) format.Node {
	n, err := format.DecodeNode(b)
	if err != nil {
		panic(err)
	}
	return n
}
