package plan

import (
	"fmt"
	"strings"
)

// Vec3 is a 3-component vector in scene units (location, rotation, scale).
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

// SocketValue is the value carried by a node-socket override. It is either a
// single scalar or a vector; which one applies to the live socket is decided
// at apply time against the socket's current shape.
type SocketValue struct {
	scalar float64
	vector []float64
}

func Scalar(v float64) SocketValue {
	return SocketValue{scalar: v}
}

func Vector(vs []float64) SocketValue {
	out := make([]float64, len(vs))
	copy(out, vs)
	return SocketValue{vector: out}
}

func (v SocketValue) IsVector() bool { return v.vector != nil }

func (v SocketValue) Scalar() float64 { return v.scalar }

// Vector returns a copy of the vector components, or nil for a scalar value.
func (v SocketValue) Vector() []float64 {
	if v.vector == nil {
		return nil
	}
	out := make([]float64, len(v.vector))
	copy(out, v.vector)
	return out
}

func (v SocketValue) String() string {
	if v.vector == nil {
		return fmt.Sprintf("%g", v.scalar)
	}
	parts := make([]string, len(v.vector))
	for i, c := range v.vector {
		parts[i] = fmt.Sprintf("%g", c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NodeOverride sets the default value of one material node socket.
type NodeOverride struct {
	Material string
	Node     string
	Socket   string
	Value    SocketValue
}

// ObjectTranslation moves an existing object by an offset. The offset is
// added to the object's current location; it is not an absolute position.
type ObjectTranslation struct {
	Name   string
	Offset Vec3
}

// PrimitiveAddition instantiates a new primitive in the scene.
type PrimitiveAddition struct {
	Primitive string
	Name      string
	Location  Vec3
	Rotation  Vec3
	Scale     Vec3
	Material  string
}

// VisibilityOverride toggles viewport/render visibility for a named object or
// collection, depending on which variation list it appears in.
type VisibilityOverride struct {
	Name    string
	Visible bool
}

// CameraInstruction overrides camera transform and optics. Each field is
// independently optional; only present fields are applied.
type CameraInstruction struct {
	Location *Vec3
	Rotation *Vec3
	Lens     *float64
}

// RenderSettings is the subset of host render configuration a plan controls.
type RenderSettings struct {
	Engine      string
	Samples     int
	ResolutionX int
	ResolutionY int
	UseDenoise  bool
	FileFormat  string
	ColorMode   string
}

// DefaultSettings returns the documented render-settings defaults. A plan's
// render_settings mapping merges over these field by field.
func DefaultSettings() RenderSettings {
	return RenderSettings{
		Engine:      "CYCLES",
		Samples:     128,
		ResolutionX: 1024,
		ResolutionY: 1024,
		UseDenoise:  true,
		FileFormat:  "PNG",
		ColorMode:   "RGB",
	}
}

// Variation is one named, independent mutation-then-render unit. Mutations
// within a variation run in a fixed stage order (node overrides, collection
// visibility, object visibility, translations, additions, camera); entries
// within each list run in document order.
type Variation struct {
	Name                 string
	NodeOverrides        []NodeOverride
	Translations         []ObjectTranslation
	Additions            []PrimitiveAddition
	CollectionVisibility []VisibilityOverride
	Visibility           []VisibilityOverride
	Camera               *CameraInstruction
	// Settings, when non-nil, replaces the plan's base settings for this
	// variation (the document mapping was already merged over defaults).
	Settings *RenderSettings
}

// Mutations reports how many individual mutations the variation carries.
func (v *Variation) Mutations() int {
	n := len(v.NodeOverrides) + len(v.Translations) + len(v.Additions) +
		len(v.CollectionVisibility) + len(v.Visibility)
	if v.Camera != nil {
		n++
	}
	return n
}

// RenderPlan is the top-level execution config. All fields are resolved and
// validated at load time and treated as immutable for the rest of the run.
type RenderPlan struct {
	ScenePath    string
	OutputDir    string
	CameraObject string
	BaseSettings RenderSettings
	Variations   []Variation
}

// EffectiveSettings returns the variation's settings override, or the plan's
// base settings when the variation has none.
func (p *RenderPlan) EffectiveSettings(v *Variation) RenderSettings {
	if v.Settings != nil {
		return *v.Settings
	}
	return p.BaseSettings
}
