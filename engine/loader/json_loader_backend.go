package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const defaultFovDegrees = 75

type jsonLoaderBackend struct{}

var _ loaderBackend = &jsonLoaderBackend{}

func newJSONLoaderBackend() loaderBackend {
	return &jsonLoaderBackend{}
}

func (b *jsonLoaderBackend) Extensions() []string {
	return []string{".json"}
}

func (b *jsonLoaderBackend) Load(path string) (*ImportedScene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	imported, err := b.LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Log.Debug("scene loaded", zap.String("path", path))
	return imported, nil
}

func (b *jsonLoaderBackend) LoadReader(r io.Reader) (*ImportedScene, error) {
	var doc jsonScene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	materials := make([]scene.Material, 0, len(doc.Materials))
	for i, raw := range doc.Materials {
		m, err := decodeMaterial(i, raw)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}

	geometry := make([]scene.Geometry, 0, len(doc.Geometry))
	for i, g := range doc.Geometry {
		shape, err := decodeShape(i, g.Shape)
		if err != nil {
			return nil, err
		}
		if g.Material == nil {
			return nil, fmt.Errorf("decode scene: geometry %d has no material", i)
		}
		geometry = append(geometry, scene.Geometry{Shape: shape, MaterialIndex: *g.Material})
	}

	lights := make([]scene.Light, 0, len(doc.Lighting))
	for i, raw := range doc.Lighting {
		l, err := decodeLight(i, raw)
		if err != nil {
			return nil, err
		}
		lights = append(lights, l)
	}

	return &ImportedScene{
		Scene: scene.NewScene(
			scene.WithMaterials(materials...),
			scene.WithGeometry(geometry...),
			scene.WithLights(lights...),
		),
		Camera: decodeCamera(doc.Camera),
	}, nil
}

// decodeVariant reads the "type" field of raw and then decodes raw again into the struct chosen for that type.
// Every variant struct embeds jsonTyped, so only fields foreign to the chosen variant are rejected.
func decodeVariant(kind string, index int, raw json.RawMessage, choose func(string) any) (any, error) {
	var typed jsonTyped
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", kind, index, err)
	}
	target := choose(typed.Type)
	if target == nil {
		return nil, &UnknownTypeError{Kind: kind, Index: index, Type: typed.Type}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", kind, index, err)
	}
	return target, nil
}

func decodeMaterial(index int, raw json.RawMessage) (scene.Material, error) {
	v, err := decodeVariant("material", index, raw, func(t string) any {
		switch t {
		case scene.MaterialTypeLambert.String():
			return &jsonLambert{}
		case scene.MaterialTypeMirror.String():
			return &jsonMirror{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case *jsonLambert:
		return scene.Lambert{Color: m.Color}, nil
	case *jsonMirror:
		return scene.Mirror{Gloss: m.Gloss}, nil
	}
	return nil, errors.New("unreachable material variant")
}

func decodeShape(index int, raw json.RawMessage) (scene.Shape, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode shape %d: missing shape", index)
	}
	v, err := decodeVariant("shape", index, raw, func(t string) any {
		switch t {
		case scene.Sphere{}.ShapeName():
			return &jsonSphere{}
		case scene.Plane{}.ShapeName():
			return &jsonPlane{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch s := v.(type) {
	case *jsonSphere:
		return scene.Sphere{Position: s.Position, Radius: s.Radius}, nil
	case *jsonPlane:
		return scene.Plane{Position: s.Position, Normal: s.Normal}, nil
	}
	return nil, errors.New("unreachable shape variant")
}

func decodeLight(index int, raw json.RawMessage) (scene.Light, error) {
	v, err := decodeVariant("light", index, raw, func(t string) any {
		if t == "sphere" {
			return &jsonSphereLight{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l := v.(*jsonSphereLight)
	intensity := float32(1)
	if l.Intensity != nil {
		intensity = *l.Intensity
	}
	return scene.SphereLight{Position: l.Position, Radius: l.Radius, Color: l.Color, Intensity: intensity}, nil
}

func decodeCamera(c *jsonCamera) *CameraDescription {
	if c == nil {
		return nil
	}
	d := &CameraDescription{
		Position: c.Position,
		Target:   c.Position.Sub(mgl32.Vec3{0, 0, 1}),
		// zero up or fov means the field was left out
		Up:  common.Coalesce(c.Up, mgl32.Vec3{0, 1, 0}),
		Fov: common.Coalesce(c.Fov, defaultFovDegrees),
	}
	if c.Target != nil {
		d.Target = *c.Target
	}
	return d
}
