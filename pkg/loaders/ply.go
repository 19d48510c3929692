// Package loaders reads external mesh files into geometry meshes.
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string
	Elements []PLYElement
}

// PLYElement is one element block, such as "vertex" or "face"
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string // Scalar type, or the item type of a list
	IsList   bool
	ListType string // For list properties, the type of the count
}

// PLYData holds the vertex and face data of a PLY file. Normals and
// TexCoords are empty when the file does not carry them.
type PLYData struct {
	Vertices  []core.Vec3
	Normals   []core.Vec3
	TexCoords []core.Vec2
	Faces     []uint32 // Three indices per triangle; polygons are fanned
}

// LoadPLY loads a PLY file
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY decodes PLY data in any of the three encodings
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReader(r)
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var src valueReader
	switch header.Format {
	case "ascii":
		src = &asciiReader{r: reader}
	case "binary_little_endian":
		src = &binaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		src = &binaryReader{r: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	data := &PLYData{}
	for _, el := range header.Elements {
		var err error
		switch el.Name {
		case "vertex":
			err = readVertices(src, el, data)
		case "face":
			err = readFaces(src, el, data)
		default:
			err = skipElement(src, el)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s data: %w", el.Name, err)
		}
	}

	for _, idx := range data.Faces {
		if int(idx) >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d out of range (%d vertices)", idx, len(data.Vertices))
		}
	}
	return data, nil
}

// Mesh converts the data into a single triangle submesh
func (d *PLYData) Mesh(name string, materialIndex int) *geometry.Mesh {
	sm := geometry.Submesh{
		Kind:          geometry.Triangles,
		Indices:       d.Faces,
		MaterialIndex: materialIndex,
		Vertices:      make([]geometry.Vertex, len(d.Vertices)),
	}
	for i, p := range d.Vertices {
		v := geometry.Vertex{Position: p}
		if i < len(d.Normals) {
			v.Normal = d.Normals[i].Normalize()
		}
		if i < len(d.TexCoords) {
			v.UV = d.TexCoords[i]
		}
		sm.Vertices[i] = v
	}
	return &geometry.Mesh{Name: name, Submeshes: []geometry.Submesh{sm}}
}

// parsePLYHeader reads header lines up to and including end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	magic, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic")
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unterminated header: %w", err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.Format == "" {
				return nil, fmt.Errorf("missing format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format, header.Version = parts[1], parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			el := &header.Elements[len(header.Elements)-1]
			el.Properties = append(el.Properties, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) >= 1 && parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop := PLYProperty{IsList: true, ListType: parts[1], Type: parts[2], Name: parts[3]}
		if typeSize(prop.ListType) == 0 || typeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("unknown type in list property %q", prop.Name)
		}
		return prop, nil
	}
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}
	if typeSize(parts[0]) == 0 {
		return PLYProperty{}, fmt.Errorf("unknown type %q for property %q", parts[0], parts[1])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// typeSize returns the byte size of a PLY scalar type, 0 when unknown
func typeSize(t string) int {
	switch t {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

// maxPrealloc bounds slice preallocation from header counts; larger
// elements grow as their data is read
const maxPrealloc = 1 << 16

func readVertices(src valueReader, el PLYElement, data *PLYData) error {
	index := make(map[string]int, len(el.Properties))
	for i, p := range el.Properties {
		index[p.Name] = i
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := index[n]; !ok {
				return false
			}
		}
		return true
	}
	if !has("x", "y", "z") {
		return fmt.Errorf("vertex element needs x, y and z")
	}
	normals := has("nx", "ny", "nz")
	uName, vName := "u", "v"
	switch {
	case has("s", "t"):
		uName, vName = "s", "t"
	case has("texture_u", "texture_v"):
		uName, vName = "texture_u", "texture_v"
	}
	uvs := has(uName, vName)

	values := make([]float64, len(el.Properties))
	data.Vertices = make([]core.Vec3, 0, min(el.Count, maxPrealloc))
	for i := 0; i < el.Count; i++ {
		for j, p := range el.Properties {
			if p.IsList {
				if err := skipList(src, p); err != nil {
					return err
				}
				continue
			}
			v, err := src.read(p.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			values[j] = v
		}
		get := func(name string) float64 { return values[index[name]] }

		data.Vertices = append(data.Vertices, core.NewVec3(get("x"), get("y"), get("z")))
		if normals {
			data.Normals = append(data.Normals, core.NewVec3(get("nx"), get("ny"), get("nz")))
		}
		if uvs {
			data.TexCoords = append(data.TexCoords, core.NewVec2(get(uName), get(vName)))
		}
	}
	return nil
}

func readFaces(src valueReader, el PLYElement, data *PLYData) error {
	for i := 0; i < el.Count; i++ {
		for _, p := range el.Properties {
			if !p.IsList || (p.Name != "vertex_indices" && p.Name != "vertex_index") {
				if err := skipProperty(src, p); err != nil {
					return err
				}
				continue
			}

			n, err := src.read(p.ListType)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if n < 0 {
				return fmt.Errorf("face %d: negative vertex count", i)
			}
			poly := make([]uint32, 0, min(int(n), maxPrealloc))
			for k := 0; k < int(n); k++ {
				v, err := src.read(p.Type)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				if v < 0 {
					return fmt.Errorf("face %d: negative index", i)
				}
				poly = append(poly, uint32(v))
			}
			for k := 1; k+1 < len(poly); k++ {
				data.Faces = append(data.Faces, poly[0], poly[k], poly[k+1])
			}
		}
	}
	return nil
}

func skipElement(src valueReader, el PLYElement) error {
	for i := 0; i < el.Count; i++ {
		for _, p := range el.Properties {
			if err := skipProperty(src, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipProperty(src valueReader, p PLYProperty) error {
	if p.IsList {
		return skipList(src, p)
	}
	_, err := src.read(p.Type)
	return err
}

func skipList(src valueReader, p PLYProperty) error {
	n, err := src.read(p.ListType)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := src.read(p.Type); err != nil {
			return err
		}
	}
	return nil
}

// valueReader reads one scalar of the given PLY type as a float64
type valueReader interface {
	read(dataType string) (float64, error)
}

type asciiReader struct {
	r *bufio.Reader
}

func (a *asciiReader) read(string) (float64, error) {
	var tok []byte
	for {
		b, err := a.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				break
			}
			return 0, io.ErrUnexpectedEOF
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if len(tok) > 0 {
				break
			}
			continue
		}
		tok = append(tok, b)
	}
	return strconv.ParseFloat(string(tok), 64)
}

type binaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) read(dataType string) (float64, error) {
	n := typeSize(dataType)
	if n == 0 {
		return 0, fmt.Errorf("unknown type %q", dataType)
	}
	buf := b.buf[:n]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, io.ErrUnexpectedEOF
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default:
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}
