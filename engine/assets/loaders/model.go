package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kilnengine/kiln/engine/math"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// ModelLoader reads a Wavefront OBJ file and produces a single
// GeometryConfig ready for GeometrySystem.AcquireFromConfig. It folds every
// face in the file into one geometry; a Mesh that needs several geometries
// is expected to reference several model resources.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config, err := ml.parseObj(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model '%s': %w", path, err)
	}
	config.Name = strings.TrimSuffix(baseName(path), extName(path))
	config.MaterialName = metadata.DefaultMaterialName

	return &metadata.Resource{
		Name:     config.Name,
		FullPath: path,
		DataSize: 1,
		Data:     []*metadata.GeometryConfig{config},
	}, nil
}

func (ml *ModelLoader) Unload(*metadata.Resource) error {
	return nil
}

type objVertexKey struct {
	p, t, n int
}

func (ml *ModelLoader) parseObj(f *os.File) (*metadata.GeometryConfig, error) {
	var positions []math.Vec3
	var texcoords []math.Vec2
	var normals []math.Vec3

	vertices := make([]math.Vertex3D, 0, 256)
	indices := make([]uint32, 0, 256)
	seen := make(map[objVertexKey]uint32)

	var minExtents, maxExtents math.Vec3
	first := true

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, err
			}
			positions = append(positions, v)
			if first {
				minExtents, maxExtents = v, v
				first = false
			} else {
				minExtents = math.Vec3{X: minf(minExtents.X, v.X), Y: minf(minExtents.Y, v.Y), Z: minf(minExtents.Z, v.Z)}
				maxExtents = math.Vec3{X: maxf(maxExtents.X, v.X), Y: maxf(maxExtents.Y, v.Y), Z: maxf(maxExtents.Z, v.Z)}
			}
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, err
			}
			texcoords = append(texcoords, uv)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, err
			}
			normals = append(normals, n)
		case "f":
			corners := fields[1:]
			// Fan-triangulate faces with more than 3 corners.
			for i := 1; i+1 < len(corners); i++ {
				tri := [3]string{corners[0], corners[i], corners[i+1]}
				for _, corner := range tri {
					key, err := parseFaceCorner(corner)
					if err != nil {
						return nil, err
					}
					idx, ok := seen[key]
					if !ok {
						vert := math.Vertex3D{}
						if key.p > 0 && key.p <= len(positions) {
							vert.Position = positions[key.p-1]
						}
						if key.t > 0 && key.t <= len(texcoords) {
							vert.Texcoord = texcoords[key.t-1]
						}
						if key.n > 0 && key.n <= len(normals) {
							vert.Normal = normals[key.n-1]
						}
						idx = uint32(len(vertices))
						vertices = append(vertices, vert)
						seen[key] = idx
					}
					indices = append(indices, idx)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(vertices) == 0 {
		return nil, fmt.Errorf("model contains no vertex data")
	}

	config := &metadata.GeometryConfig{
		VertexCount: uint32(len(vertices)),
		Vertices:    vertices,
		IndexSize:   4,
		IndexCount:  uint32(len(indices)),
		Indices:     indices,
		Center:      math.NewVec3((minExtents.X+maxExtents.X)*0.5, (minExtents.Y+maxExtents.Y)*0.5, (minExtents.Z+maxExtents.Z)*0.5),
		MinExtents:  minExtents,
		MaxExtents:  maxExtents,
	}
	config.Vertices = math.GeometryGenerateTangents(config.VertexCount, config.Vertices, config.IndexCount, config.Indices)

	return config, nil
}

func parseFaceCorner(corner string) (objVertexKey, error) {
	parts := strings.Split(corner, "/")
	var key objVertexKey
	var err error
	key.p, err = atoiOrZero(parts[0])
	if err != nil {
		return key, err
	}
	if len(parts) > 1 {
		key.t, err = atoiOrZero(parts[1])
		if err != nil {
			return key, err
		}
	}
	if len(parts) > 2 {
		key.n, err = atoiOrZero(parts[2])
		if err != nil {
			return key, err
		}
	}
	return key, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return math.Vec3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return math.Vec3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.NewVec3(float32(x), float32(y), float32(z)), nil
}

func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) < 2 {
		return math.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	u, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return math.Vec2{}, err
	}
	v, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return math.Vec2{}, err
	}
	return math.NewVec2(float32(u), float32(v)), nil
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func extName(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		return p[i:]
	}
	return ""
}
