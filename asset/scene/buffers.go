package scene

import (
	"encoding/binary"
	"math"

	"github.com/achilleasa/polaris-bvh/types"
	"github.com/pkg/errors"
)

// GPU buffer strides. Vector fields are padded to 16 bytes so the buffers
// can be bound as std430 storage blocks without conversion.
const (
	BvhNodeSize   = 48
	PrimitiveSize = 96
	IndexSize     = 4
)

var byteOrder = binary.LittleEndian

// Encode bvh nodes into a tightly packed GPU buffer.
func EncodeNodes(nodes []BvhNode) []byte {
	buf := make([]byte, len(nodes)*BvhNodeSize)
	for index := range nodes {
		n := &nodes[index]
		out := buf[index*BvhNodeSize:]

		putVec3(out[0:], n.Min)
		byteOrder.PutUint32(out[12:], uint32(n.LeftChild))
		putVec3(out[16:], n.Max)
		byteOrder.PutUint32(out[28:], uint32(n.RightChild))
		byteOrder.PutUint32(out[32:], uint32(n.StartIndex))
		byteOrder.PutUint32(out[36:], uint32(n.PrimitiveCount))
		byteOrder.PutUint32(out[40:], uint32(n.EscapeIndex))
	}
	return buf
}

// Decode a GPU node buffer produced by EncodeNodes.
func DecodeNodes(buf []byte) ([]BvhNode, error) {
	if len(buf)%BvhNodeSize != 0 {
		return nil, errors.Errorf("node buffer length %d is not a multiple of %d", len(buf), BvhNodeSize)
	}

	nodes := make([]BvhNode, len(buf)/BvhNodeSize)
	for index := range nodes {
		in := buf[index*BvhNodeSize:]
		nodes[index] = BvhNode{
			Min:            getVec3(in[0:]),
			LeftChild:      int32(byteOrder.Uint32(in[12:])),
			Max:            getVec3(in[16:]),
			RightChild:     int32(byteOrder.Uint32(in[28:])),
			StartIndex:     int32(byteOrder.Uint32(in[32:])),
			PrimitiveCount: int32(byteOrder.Uint32(in[36:])),
			EscapeIndex:    int32(byteOrder.Uint32(in[40:])),
		}
	}
	return nodes, nil
}

// Encode the primitive index list as a buffer of 32-bit indices.
func EncodeIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*IndexSize)
	for index, value := range indices {
		byteOrder.PutUint32(buf[index*IndexSize:], value)
	}
	return buf
}

// Decode an index buffer produced by EncodeIndices.
func DecodeIndices(buf []byte) ([]uint32, error) {
	if len(buf)%IndexSize != 0 {
		return nil, errors.Errorf("index buffer length %d is not a multiple of %d", len(buf), IndexSize)
	}

	indices := make([]uint32, len(buf)/IndexSize)
	for index := range indices {
		indices[index] = byteOrder.Uint32(buf[index*IndexSize:])
	}
	return indices, nil
}

// Encode primitives into a GPU buffer. The sphere radius is packed in the w
// component of the first vertex and smoothness in the w component of the color.
func EncodePrimitives(prims []Primitive) []byte {
	buf := make([]byte, len(prims)*PrimitiveSize)
	for index := range prims {
		p := &prims[index]
		out := buf[index*PrimitiveSize:]

		putVec3(out[0:], p.Vertices[0])
		putFloat32(out[12:], p.Radius)
		putVec3(out[16:], p.Vertices[1])
		putVec3(out[32:], p.Vertices[2])
		putVec3(out[48:], p.Color)
		putFloat32(out[60:], p.Smoothness)
		putVec3(out[64:], p.Normal)
		byteOrder.PutUint32(out[76:], uint32(p.Kind))
		putFloat32(out[80:], p.BounceOdds)
		byteOrder.PutUint32(out[84:], uint32(p.Material))
		putFloat32(out[88:], p.IOR)
	}
	return buf
}

// Decode a primitive buffer produced by EncodePrimitives.
func DecodePrimitives(buf []byte) ([]Primitive, error) {
	if len(buf)%PrimitiveSize != 0 {
		return nil, errors.Errorf("primitive buffer length %d is not a multiple of %d", len(buf), PrimitiveSize)
	}

	prims := make([]Primitive, len(buf)/PrimitiveSize)
	for index := range prims {
		in := buf[index*PrimitiveSize:]
		prims[index] = Primitive{
			Vertices:   [3]types.Vec3{getVec3(in[0:]), getVec3(in[16:]), getVec3(in[32:])},
			Radius:     getFloat32(in[12:]),
			Color:      getVec3(in[48:]),
			Smoothness: getFloat32(in[60:]),
			Normal:     getVec3(in[64:]),
			Kind:       ShapeKind(byteOrder.Uint32(in[76:])),
			BounceOdds: getFloat32(in[80:]),
			Material:   MaterialType(byteOrder.Uint32(in[84:])),
			IOR:        getFloat32(in[88:]),
		}
	}
	return prims, nil
}

func putFloat32(out []byte, v float32) {
	byteOrder.PutUint32(out, math.Float32bits(v))
}

func getFloat32(in []byte) float32 {
	return math.Float32frombits(byteOrder.Uint32(in))
}

func putVec3(out []byte, v types.Vec3) {
	putFloat32(out[0:], v[0])
	putFloat32(out[4:], v[1])
	putFloat32(out[8:], v[2])
}

func getVec3(in []byte) types.Vec3 {
	return types.Vec3{getFloat32(in[0:]), getFloat32(in[4:]), getFloat32(in[8:])}
}
