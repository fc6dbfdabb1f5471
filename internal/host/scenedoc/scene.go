package scenedoc

import (
	"context"
	"fmt"
	"strings"

	"renderplan/internal/host"
	"renderplan/internal/plan"
)

// docScene implements host.Scene over the parsed document.
type docScene struct {
	objects     []*object
	materials   map[string]*material
	collections map[string]*collection
	viewLayers  []*viewLayer

	renderCfg  *host.RenderConfig
	samples    int
	useDenoise bool
}

func (s *docScene) FindObject(name string) (host.Object, bool) {
	for _, obj := range s.objects {
		if obj.name == name {
			return obj, true
		}
	}
	return nil, false
}

func (s *docScene) FindMaterial(name string) (host.Material, bool) {
	m, ok := s.materials[name]
	if !ok {
		return nil, false
	}
	return m, true
}

func (s *docScene) FindCollection(name string) (host.Collection, bool) {
	c, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func (s *docScene) ViewLayers() []host.ViewLayer {
	out := make([]host.ViewLayer, len(s.viewLayers))
	for i, vl := range s.viewLayers {
		out[i] = vl
	}
	return out
}

func (s *docScene) Objects() []host.Object {
	out := make([]host.Object, len(s.objects))
	for i, obj := range s.objects {
		out[i] = obj
	}
	return out
}

// primitiveBaseNames maps supported primitive kinds to the base name a new
// object receives, mirroring the host application's mesh-add operators.
var primitiveBaseNames = map[string]string{
	"cube":       "Cube",
	"plane":      "Plane",
	"uv_sphere":  "Sphere",
	"ico_sphere": "Icosphere",
	"cylinder":   "Cylinder",
	"cone":       "Cone",
	"torus":      "Torus",
	"monkey":     "Suzanne",
}

func (s *docScene) AddPrimitive(kind string, location plan.Vec3) (host.Object, error) {
	base, ok := primitiveBaseNames[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrUnknownPrimitive, kind)
	}
	obj := &object{
		name:     s.uniqueName(base),
		kind:     "MESH",
		location: location,
		scale:    plan.Vec3{1, 1, 1},
	}
	s.objects = append(s.objects, obj)
	return obj, nil
}

// uniqueName disambiguates like the host application: "Cube", "Cube.001", ...
func (s *docScene) uniqueName(base string) string {
	name := base
	for i := 1; s.nameTaken(name); i++ {
		name = fmt.Sprintf("%s.%03d", base, i)
	}
	return name
}

func (s *docScene) nameTaken(name string) bool {
	for _, obj := range s.objects {
		if obj.name == name {
			return true
		}
	}
	return false
}

func (s *docScene) ConfigureRender(cfg host.RenderConfig) error {
	if cfg.FilePath == "" {
		return fmt.Errorf("render file path is required")
	}
	if cfg.ResolutionX <= 0 || cfg.ResolutionY <= 0 {
		return fmt.Errorf("invalid render resolution %dx%d", cfg.ResolutionX, cfg.ResolutionY)
	}
	s.renderCfg = &cfg
	return nil
}

func (s *docScene) SetSampling(samples int, denoise bool) error {
	if samples <= 0 {
		return fmt.Errorf("samples must be > 0, got %d", samples)
	}
	s.samples = samples
	s.useDenoise = denoise
	return nil
}

func (s *docScene) Render(ctx context.Context) error {
	if s.renderCfg == nil {
		return fmt.Errorf("render settings have not been configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeArtifact(*s.renderCfg)
}

// object implements host.Object.
type object struct {
	name     string
	kind     string
	location plan.Vec3
	rotation plan.Vec3
	scale    plan.Vec3
	slots    []*material

	hideViewport bool
	hideRender   bool
	hiddenVL     bool
	lens         *float64
}

func (o *object) Name() string                 { return o.name }
func (o *object) SetName(name string)          { o.name = name }
func (o *object) Kind() string                 { return o.kind }
func (o *object) Location() plan.Vec3          { return o.location }
func (o *object) SetLocation(v plan.Vec3)      { o.location = v }
func (o *object) RotationEuler() plan.Vec3     { return o.rotation }
func (o *object) SetRotationEuler(v plan.Vec3) { o.rotation = v }
func (o *object) Scale() plan.Vec3             { return o.scale }
func (o *object) SetScale(v plan.Vec3)         { o.scale = v }
func (o *object) SetHideViewport(hide bool)    { o.hideViewport = hide }
func (o *object) SetHideRender(hide bool)      { o.hideRender = hide }

func (o *object) HideSet(hide bool) error {
	o.hiddenVL = hide
	return nil
}

func (o *object) Hidden() bool { return o.hiddenVL }

func (o *object) SetLens(mm float64) error {
	if o.kind != "CAMERA" {
		return host.ErrUnsupported
	}
	o.lens = &mm
	return nil
}

func (o *object) AssignMaterial(m host.Material) {
	mat, ok := m.(*material)
	if !ok {
		return
	}
	if len(o.slots) > 0 {
		o.slots[0] = mat
		return
	}
	o.slots = append(o.slots, mat)
}

// material implements host.Material.
type material struct {
	name     string
	useNodes bool
	nodes    []*node
}

func (m *material) Name() string    { return m.name }
func (m *material) UsesNodes() bool { return m.useNodes }

func (m *material) FindNode(name string) (host.Node, bool) {
	for _, n := range m.nodes {
		if n.name == name {
			return n, true
		}
	}
	return nil, false
}

type node struct {
	name    string
	inputs  []*socket
	outputs []*socket
}

func (n *node) Name() string { return n.name }

func (n *node) FindSocket(name string) (host.Socket, bool) {
	for _, s := range n.inputs {
		if s.name == name {
			return s, true
		}
	}
	for _, s := range n.outputs {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

type socket struct {
	name  string
	value plan.SocketValue
}

func (s *socket) Name() string              { return s.name }
func (s *socket) Default() plan.SocketValue { return s.value }

// SetDefault enforces the socket's current shape: a vector socket accepts
// only a vector of the same length, a scalar socket only a scalar.
func (s *socket) SetDefault(v plan.SocketValue) error {
	if s.value.IsVector() != v.IsVector() {
		return fmt.Errorf("socket %s: value shape mismatch", s.name)
	}
	if v.IsVector() && len(v.Vector()) != len(s.value.Vector()) {
		return fmt.Errorf("socket %s: expected %d components, received %d",
			s.name, len(s.value.Vector()), len(v.Vector()))
	}
	s.value = v
	return nil
}

// collection implements host.Collection.
type collection struct {
	name         string
	hideViewport bool
	hideRender   bool
}

func (c *collection) Name() string              { return c.name }
func (c *collection) SetHideViewport(hide bool) { c.hideViewport = hide }
func (c *collection) SetHideRender(hide bool)   { c.hideRender = hide }

type viewLayer struct {
	name string
	root *layerCollection
}

func (v *viewLayer) Name() string               { return v.name }
func (v *viewLayer) Root() host.LayerCollection { return v.root }

type layerCollection struct {
	collection   *collection
	children     []*layerCollection
	hideViewport bool
	exclude      bool
}

func (l *layerCollection) CollectionName() string { return l.collection.name }

func (l *layerCollection) Children() []host.LayerCollection {
	out := make([]host.LayerCollection, len(l.children))
	for i, c := range l.children {
		out[i] = c
	}
	return out
}

func (l *layerCollection) SetHideViewport(hide bool)   { l.hideViewport = hide }
func (l *layerCollection) SetExclude(exclude bool)     { l.exclude = exclude }
func (l *layerCollection) Collection() host.Collection { return l.collection }
