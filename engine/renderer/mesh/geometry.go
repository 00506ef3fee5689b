package mesh

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
)

// Vertex is one vertex of the quad geometry. It matches pipeline.QuadVertexLayout.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
}

// vertexSize is the packed size of a Vertex in bytes.
const vertexSize = 5 * 4

// QuadVertices covers clip space with uv (0,0) at the bottom left.
var QuadVertices = []Vertex{
	{Position: [3]float32{-1, 1, 0}, UV: [2]float32{0, 1}},
	{Position: [3]float32{1, -1, 0}, UV: [2]float32{1, 0}},
	{Position: [3]float32{-1, -1, 0}, UV: [2]float32{0, 0}},
	{Position: [3]float32{1, 1, 0}, UV: [2]float32{1, 1}},
}

// QuadIndices are the two triangles of the quad.
var QuadIndices = []uint32{
	0, 1, 2,
	0, 3, 1,
}

// Geometry is CPU-side vertex and index data ready for upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// GeometryFor returns the geometry of a source. Compute shader sources are not generated yet and
// fall back to the quad; ok is false in that case.
//
// Parameters:
//   - source: the geometry source of a mesh descriptor
//
// Returns:
//   - Geometry: the geometry to upload
//   - bool: false when the source was replaced by the quad
func GeometryFor(source scene.GeometrySource) (Geometry, bool) {
	quad := Geometry{Vertices: QuadVertices, Indices: QuadIndices}
	if source.Primitive != nil && *source.Primitive == scene.PrimitiveQuad {
		return quad, true
	}
	return quad, false
}

// VertexBytes packs the vertices as little endian float32.
func (g Geometry) VertexBytes() []byte {
	out := make([]byte, len(g.Vertices)*vertexSize)
	for i, v := range g.Vertices {
		base := i * vertexSize
		for j, f := range v.Position {
			binary.LittleEndian.PutUint32(out[base+j*4:], math.Float32bits(f))
		}
		for j, f := range v.UV {
			binary.LittleEndian.PutUint32(out[base+12+j*4:], math.Float32bits(f))
		}
	}
	return out
}

// IndexBytes packs the indices as little endian uint32.
func (g Geometry) IndexBytes() []byte {
	out := make([]byte, len(g.Indices)*4)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}
