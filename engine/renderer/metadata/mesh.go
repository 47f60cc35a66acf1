package metadata

import (
	"github.com/kilnengine/kiln/engine/math"
)

type Mesh struct {
	UniqueID      uint32
	Generation    uint8
	GeometryCount uint16
	Geometries    []*Geometry
	Transform     *math.Transform
}
