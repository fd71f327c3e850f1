package loader

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl32"
)

// jsonScene mirrors the scene file layout. Variant entries stay raw until their "type" field is read.
type jsonScene struct {
	Materials []json.RawMessage `json:"materials"`
	Geometry  []jsonGeometry    `json:"geometry"`
	Lighting  []json.RawMessage `json:"lighting"`
	Camera    *jsonCamera       `json:"camera"`
}

type jsonTyped struct {
	Type string `json:"type"`
}

type jsonLambert struct {
	jsonTyped
	Color mgl32.Vec3 `json:"color"`
}

type jsonMirror struct {
	jsonTyped
	Gloss float32 `json:"gloss"`
}

type jsonGeometry struct {
	Shape    json.RawMessage `json:"shape"`
	Material *int            `json:"material"`
}

type jsonSphere struct {
	jsonTyped
	Position mgl32.Vec3 `json:"position"`
	Radius   float32    `json:"radius"`
}

type jsonPlane struct {
	jsonTyped
	Position mgl32.Vec3 `json:"position"`
	Normal   mgl32.Vec3 `json:"normal"`
}

type jsonSphereLight struct {
	jsonTyped
	Position  mgl32.Vec3 `json:"position"`
	Radius    float32    `json:"radius"`
	Color     mgl32.Vec3 `json:"color"`
	Intensity *float32   `json:"intensity"`
}

type jsonCamera struct {
	Position mgl32.Vec3  `json:"position"`
	Target   *mgl32.Vec3 `json:"target"`
	Up       mgl32.Vec3  `json:"up"`
	Fov      float32     `json:"fov"`
}
