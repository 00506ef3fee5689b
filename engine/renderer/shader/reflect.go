package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatInfo holds a vertex format and its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// sampledTextureInfo holds the view dimension and multisampled flag of a sampled texture type.
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// typeLayout is the byte size and alignment of a WGSL type in host-shareable memory.
type typeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

// wgslVertexFormats maps WGSL vertex input types to vertex formats.
var wgslVertexFormats = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

var wgslSampledTextures = map[string]sampledTextureInfo{
	"texture_1d":                    {wgpu.TextureViewDimension1D, false},
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

var wgslSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslPrimitiveLayouts holds size and alignment of the primitive types that appear in uniforms.
var wgslPrimitiveLayouts = map[string]typeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"vec2<u32>":   {8, 8},
	"vec4<u32>":   {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

var (
	structBlockRegex  = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex     = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex      = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldRegex        = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)
	vertexEntryRegex  = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragEntryRegex    = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	vertexParamsRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)\s*\(([^)]*)\)`)

	// declRegex captures group, binding, address space, name and type of a resource variable,
	// e.g. @group(0) @binding(1) var<uniform> camera: Camera;
	declRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Declaration is one resource variable declared by a shader.
type Declaration struct {
	Group, Binding uint32
	Name           string
	// AddressSpace is "uniform" or "storage, ..." for buffers and empty for handle types.
	AddressSpace string
	Type         string
	// Entry is the layout entry the declaration requires. Visibility is left unset.
	Entry wgpu.BindGroupLayoutEntry
	// Size is the host-shareable size of a buffer declaration's type, or 0 if unknown.
	Size uint64
}

// reflection is what the renderer needs to know about a validated module.
type reflection struct {
	vertexEntries   []string
	fragmentEntries []string
	declarations    []Declaration
	// vertexInputs maps an entry point to the vertex input layout of its struct parameter.
	vertexInputs map[string]wgpu.VertexBufferLayout
}

// reflectSource scans WGSL for entry points, resource declarations and vertex inputs.
func reflectSource(source string) reflection {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	sizes := computeStructSizes(structs)

	r := reflection{
		vertexEntries:   captureAll(vertexEntryRegex, cleaned),
		fragmentEntries: captureAll(fragEntryRegex, cleaned),
		vertexInputs:    make(map[string]wgpu.VertexBufferLayout),
	}

	for _, m := range declRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		d := Declaration{
			Group:        uint32(group),
			Binding:      uint32(binding),
			AddressSpace: strings.TrimSpace(m[3]),
			Name:         m[4],
			Type:         strings.TrimSpace(m[5]),
		}
		d.Entry = classifyResource(d.Binding, d.AddressSpace, d.Type)
		if d.Entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(d.Type, sizes); ok {
				d.Size = layout.size
			}
		}
		r.declarations = append(r.declarations, d)
	}
	slices.SortFunc(r.declarations, func(a, b Declaration) int {
		if a.Group != b.Group {
			return int(a.Group) - int(b.Group)
		}
		return int(a.Binding) - int(b.Binding)
	})

	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}
	for _, m := range vertexParamsRegex.FindAllStringSubmatch(cleaned, -1) {
		for _, param := range splitAtTopLevelCommas(m[2]) {
			_, typeName, ok := strings.Cut(param, ":")
			if !ok {
				continue
			}
			ps, ok := byName[strings.TrimSpace(typeName)]
			if !ok || !isVertexInputStruct(ps) {
				continue
			}
			if layout, ok := buildVertexBufferLayout(ps); ok {
				r.vertexInputs[m[1]] = layout
			}
		}
	}
	return r
}

func captureAll(re *regexp.Regexp, source string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(source, -1) {
		out = append(out, m[1])
	}
	return out
}

// classifyResource derives the layout entry a declaration needs from its address space and type.
func classifyResource(binding uint32, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding}

	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage"):
			if strings.Contains(addressSpace, "read_write") {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			} else {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
		}
		return entry
	}

	switch {
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_depth_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		if info, ok := wgslSampledTextures[typeName]; ok {
			entry.Texture.ViewDimension = info.viewDimension
			entry.Texture.Multisampled = info.multisampled
		}
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitTypeParams(typeName)
		if info, ok := wgslSampledTextures[base]; ok {
			entry.Texture.ViewDimension = info.viewDimension
			entry.Texture.Multisampled = info.multisampled
		}
		if st, ok := wgslSampleTypes[param]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32").
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves primitives, known structs and fixed-size arrays.
func resolveTypeLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if layout, ok := wgslPrimitiveLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return typeLayout{}, false
	}
	elemType, countStr, fixed := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	if !fixed {
		return typeLayout{}, false
	}
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemType), known)
	if !ok {
		return typeLayout{}, false
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	return typeLayout{count * roundUpAlign(elem.align, elem.size), elem.align}, true
}

func computeStructLayout(ps parsedStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		maxAlign = max(maxAlign, fl.align)
	}
	return typeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves struct layouts until no further struct can be resolved, so structs
// may reference each other in any order.
func computeStructSizes(structs []parsedStruct) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	remaining := slices.Clone(structs)
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	var fields []parsedField
	for _, line := range splitAtTopLevelCommas(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(line),
		}
		if loc := locationRegex.FindStringSubmatch(line); loc != nil {
			field.location, _ = strconv.Atoi(loc[1])
		}
		fields = append(fields, field)
	}
	return fields
}

// isVertexInputStruct reports whether every field is a @location attribute.
func isVertexInputStruct(ps parsedStruct) bool {
	if len(ps.fields) == 0 {
		return false
	}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return false
		}
	}
	return true
}

func buildVertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64
	for _, f := range ps.fields {
		info, ok := wgslVertexFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// splitAtTopLevelCommas splits at commas outside angle brackets, so array<T, N> stays whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes /* */ comments, which nest in WGSL.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
