package apply

import (
	"context"
	"reflect"
	"testing"

	"renderplan/internal/host"
	"renderplan/internal/output"
	"renderplan/internal/plan"
)

// recorder captures mutation records in order.
type recorder struct {
	mutations []output.Mutation
}

func (r *recorder) Write(v any) error {
	if m, ok := v.(output.Mutation); ok {
		r.mutations = append(r.mutations, m)
	}
	return nil
}

func (r *recorder) stages() []string {
	out := make([]string, 0, len(r.mutations))
	for _, m := range r.mutations {
		out = append(out, m.Stage)
	}
	return out
}

type fakeSocket struct {
	name string
	def  plan.SocketValue
	err  error
}

func (s *fakeSocket) Name() string              { return s.name }
func (s *fakeSocket) Default() plan.SocketValue { return s.def }
func (s *fakeSocket) SetDefault(v plan.SocketValue) error {
	if s.err != nil {
		return s.err
	}
	s.def = v
	return nil
}

type fakeNode struct {
	name    string
	sockets map[string]*fakeSocket
}

func (n *fakeNode) Name() string { return n.name }
func (n *fakeNode) FindSocket(name string) (host.Socket, bool) {
	s, ok := n.sockets[name]
	return s, ok
}

type fakeMaterial struct {
	name     string
	useNodes bool
	nodes    map[string]*fakeNode
}

func (m *fakeMaterial) Name() string    { return m.name }
func (m *fakeMaterial) UsesNodes() bool { return m.useNodes }
func (m *fakeMaterial) FindNode(name string) (host.Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

type fakeObject struct {
	name      string
	kind      string
	location  plan.Vec3
	rotation  plan.Vec3
	scale     plan.Vec3
	hideVP    bool
	hideRen   bool
	hideVL    bool
	hideErr   error
	lens      float64
	lensErr   error
	materials []host.Material
}

func (o *fakeObject) Name() string                   { return o.name }
func (o *fakeObject) SetName(name string)            { o.name = name }
func (o *fakeObject) Kind() string                   { return o.kind }
func (o *fakeObject) Location() plan.Vec3            { return o.location }
func (o *fakeObject) SetLocation(v plan.Vec3)        { o.location = v }
func (o *fakeObject) RotationEuler() plan.Vec3       { return o.rotation }
func (o *fakeObject) SetRotationEuler(v plan.Vec3)   { o.rotation = v }
func (o *fakeObject) Scale() plan.Vec3               { return o.scale }
func (o *fakeObject) SetScale(v plan.Vec3)           { o.scale = v }
func (o *fakeObject) SetHideViewport(hide bool)      { o.hideVP = hide }
func (o *fakeObject) SetHideRender(hide bool)        { o.hideRen = hide }
func (o *fakeObject) Hidden() bool                   { return o.hideVP }
func (o *fakeObject) AssignMaterial(m host.Material) { o.materials = append(o.materials, m) }

func (o *fakeObject) HideSet(hide bool) error {
	if o.hideErr != nil {
		return o.hideErr
	}
	o.hideVL = hide
	return nil
}

func (o *fakeObject) SetLens(mm float64) error {
	if o.lensErr != nil {
		return o.lensErr
	}
	o.lens = mm
	return nil
}

type fakeCollection struct {
	name    string
	hideVP  bool
	hideRen bool
}

func (c *fakeCollection) Name() string              { return c.name }
func (c *fakeCollection) SetHideViewport(hide bool) { c.hideVP = hide }
func (c *fakeCollection) SetHideRender(hide bool)   { c.hideRen = hide }

type fakeLayerCollection struct {
	collection *fakeCollection
	children   []*fakeLayerCollection
	hideVP     bool
	excluded   bool
}

func (lc *fakeLayerCollection) CollectionName() string { return lc.collection.name }
func (lc *fakeLayerCollection) Children() []host.LayerCollection {
	out := make([]host.LayerCollection, len(lc.children))
	for i, c := range lc.children {
		out[i] = c
	}
	return out
}
func (lc *fakeLayerCollection) SetHideViewport(hide bool)   { lc.hideVP = hide }
func (lc *fakeLayerCollection) SetExclude(exclude bool)     { lc.excluded = exclude }
func (lc *fakeLayerCollection) Collection() host.Collection { return lc.collection }

type fakeViewLayer struct {
	name string
	root *fakeLayerCollection
}

func (vl *fakeViewLayer) Name() string               { return vl.name }
func (vl *fakeViewLayer) Root() host.LayerCollection { return vl.root }

type fakeScene struct {
	objects     []*fakeObject
	materials   map[string]*fakeMaterial
	collections map[string]*fakeCollection
	viewLayers  []*fakeViewLayer

	addErr error
	calls  int
}

func (s *fakeScene) FindObject(name string) (host.Object, bool) {
	s.calls++
	for _, o := range s.objects {
		if o.name == name {
			return o, true
		}
	}
	return nil, false
}

func (s *fakeScene) FindMaterial(name string) (host.Material, bool) {
	s.calls++
	m, ok := s.materials[name]
	return m, ok
}

func (s *fakeScene) FindCollection(name string) (host.Collection, bool) {
	s.calls++
	c, ok := s.collections[name]
	return c, ok
}

func (s *fakeScene) ViewLayers() []host.ViewLayer {
	s.calls++
	out := make([]host.ViewLayer, len(s.viewLayers))
	for i, vl := range s.viewLayers {
		out[i] = vl
	}
	return out
}

func (s *fakeScene) Objects() []host.Object {
	s.calls++
	out := make([]host.Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o
	}
	return out
}

func (s *fakeScene) AddPrimitive(kind string, location plan.Vec3) (host.Object, error) {
	s.calls++
	if s.addErr != nil {
		return nil, s.addErr
	}
	obj := &fakeObject{name: kind, kind: "MESH", location: location, scale: plan.Vec3{1, 1, 1}}
	s.objects = append(s.objects, obj)
	return obj, nil
}

func (s *fakeScene) ConfigureRender(cfg host.RenderConfig) error { s.calls++; return nil }
func (s *fakeScene) SetSampling(samples int, denoise bool) error { s.calls++; return nil }
func (s *fakeScene) Render(ctx context.Context) error            { s.calls++; return nil }

func fullVariation() *plan.Variation {
	lens := 85.0
	loc := plan.Vec3{0, -10, 4}
	return &plan.Variation{
		Name: "full",
		NodeOverrides: []plan.NodeOverride{
			{Material: "LaserMat", Node: "Emission", Socket: "Strength", Value: plan.Scalar(12)},
		},
		CollectionVisibility: []plan.VisibilityOverride{{Name: "LaserGrid", Visible: false}},
		Visibility:           []plan.VisibilityOverride{{Name: "Backdrop", Visible: false}},
		Translations:         []plan.ObjectTranslation{{Name: "Cube", Offset: plan.Vec3{0, 0, 5}}},
		Additions:            []plan.PrimitiveAddition{{Primitive: "cube", Name: "Marker", Scale: plan.Vec3{1, 1, 1}}},
		Camera:               &plan.CameraInstruction{Location: &loc, Lens: &lens},
	}
}

func fullScene() *fakeScene {
	grid := &fakeCollection{name: "LaserGrid"}
	other := &fakeCollection{name: "Props"}
	return &fakeScene{
		objects: []*fakeObject{
			{name: "Cube", kind: "MESH", location: plan.Vec3{1, 2, 3}, scale: plan.Vec3{1, 1, 1}},
			{name: "Backdrop", kind: "MESH", scale: plan.Vec3{1, 1, 1}},
			{name: "Camera", kind: "CAMERA", scale: plan.Vec3{1, 1, 1}},
		},
		materials: map[string]*fakeMaterial{
			"LaserMat": {
				name:     "LaserMat",
				useNodes: true,
				nodes: map[string]*fakeNode{
					"Emission": {
						name: "Emission",
						sockets: map[string]*fakeSocket{
							"Strength": {name: "Strength", def: plan.Scalar(1)},
							"Color":    {name: "Color", def: plan.Vector([]float64{1, 1, 1, 1})},
						},
					},
				},
			},
		},
		collections: map[string]*fakeCollection{"LaserGrid": grid, "Props": other},
		viewLayers: []*fakeViewLayer{
			{
				name: "ViewLayer",
				root: &fakeLayerCollection{
					collection: &fakeCollection{name: "Scene Collection"},
					children: []*fakeLayerCollection{
						{collection: grid},
						{collection: other, children: []*fakeLayerCollection{
							// Same collection linked a second time, deeper.
							{collection: grid},
						}},
					},
				},
			},
		},
	}
}

func TestApply_StageOrder(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(fullVariation())

	want := []string{
		"node_override",
		"collection_visibility",
		"object_visibility",
		"translation",
		"addition",
		"camera",
	}
	if got := rec.stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stage order mismatch: got %v want %v", got, want)
	}
	if a.Skipped() != 0 {
		t.Fatalf("nothing should be skipped, got %d", a.Skipped())
	}
	for _, m := range rec.mutations {
		if m.Status != output.StatusApplied {
			t.Fatalf("expected APPLIED, got %s for %s", m.Status, m.Stage)
		}
		if m.Variation != "full" {
			t.Fatalf("variation name missing on record: %+v", m)
		}
	}
}

func TestApply_TranslationIsAdditive(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name:         "move",
		Translations: []plan.ObjectTranslation{{Name: "Cube", Offset: plan.Vec3{0, 0, 5}}},
	})

	if got := scene.objects[0].location; got != (plan.Vec3{1, 2, 8}) {
		t.Fatalf("translation should add to current location, got %v", got)
	}
}

func TestApply_MissingTargetsSkipWithoutAborting(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name: "holes",
		NodeOverrides: []plan.NodeOverride{
			{Material: "NoSuchMat", Node: "Emission", Socket: "Strength", Value: plan.Scalar(1)},
		},
		Visibility:   []plan.VisibilityOverride{{Name: "Ghost", Visible: false}},
		Translations: []plan.ObjectTranslation{{Name: "Cube", Offset: plan.Vec3{1, 0, 0}}},
	})

	if a.Skipped() != 2 {
		t.Fatalf("expected 2 skips, got %d", a.Skipped())
	}
	// The translation after the misses must still run.
	last := rec.mutations[len(rec.mutations)-1]
	if last.Stage != "translation" || last.Status != output.StatusApplied {
		t.Fatalf("later mutations should still apply: %+v", last)
	}
	if got := scene.objects[0].location; got != (plan.Vec3{2, 2, 3}) {
		t.Fatalf("translation should still land, got %v", got)
	}
}

func TestApply_CollectionVisibilityUpdatesEveryTreeNode(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name:                 "hide-grid",
		CollectionVisibility: []plan.VisibilityOverride{{Name: "LaserGrid", Visible: false}},
	})

	if !scene.collections["LaserGrid"].hideVP || !scene.collections["LaserGrid"].hideRen {
		t.Fatalf("collection global flags not set")
	}
	root := scene.viewLayers[0].root
	direct := root.children[0]
	nested := root.children[1].children[0]
	for _, node := range []*fakeLayerCollection{direct, nested} {
		if !node.hideVP || !node.excluded {
			t.Fatalf("layer-collection occurrence not updated: %+v", node)
		}
	}
	if root.children[1].hideVP {
		t.Fatalf("unrelated collection should be untouched")
	}
}

func TestApply_ObjectVisibilityFallsBackWhenHideSetUnsupported(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	scene.objects[1].hideErr = host.ErrUnsupported
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name:       "hide",
		Visibility: []plan.VisibilityOverride{{Name: "Backdrop", Visible: false}},
	})

	obj := scene.objects[1]
	if !obj.hideVP || !obj.hideRen {
		t.Fatalf("fallback flags not set: %+v", obj)
	}
	if a.Skipped() != 0 {
		t.Fatalf("unsupported HideSet is not a skip, got %d", a.Skipped())
	}
}

func TestApply_SocketCoercion(t *testing.T) {
	tests := []struct {
		name     string
		current  plan.SocketValue
		override plan.SocketValue
		want     []float64 // nil means scalar expected
		wantErr  bool
	}{
		{"scalar to scalar", plan.Scalar(1), plan.Scalar(5), nil, false},
		{"scalar broadcast to vector", plan.Vector([]float64{1, 1, 1, 1}), plan.Scalar(0.5), []float64{0.5, 0.5, 0.5, 0.5}, false},
		{"matching vector", plan.Vector([]float64{0, 0, 0}), plan.Vector([]float64{1, 2, 3}), []float64{1, 2, 3}, false},
		{"length mismatch", plan.Vector([]float64{0, 0, 0, 0}), plan.Vector([]float64{1, 2, 3}), nil, true},
		{"vector to scalar socket", plan.Scalar(1), plan.Vector([]float64{1, 2}), nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceSocketValue(tc.current, tc.override)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected coercion error")
				}
				return
			}
			if err != nil {
				t.Fatalf("coerceSocketValue returned error: %v", err)
			}
			if tc.want == nil {
				if got.IsVector() {
					t.Fatalf("expected scalar, got %v", got)
				}
				return
			}
			if !reflect.DeepEqual(got.Vector(), tc.want) {
				t.Fatalf("coerced value mismatch: got %v want %v", got.Vector(), tc.want)
			}
		})
	}
}

func TestApply_NodeOverrideSetsSocket(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name: "emission",
		NodeOverrides: []plan.NodeOverride{
			{Material: "LaserMat", Node: "Emission", Socket: "Color", Value: plan.Scalar(0.25)},
		},
	})

	socket := scene.materials["LaserMat"].nodes["Emission"].sockets["Color"]
	want := []float64{0.25, 0.25, 0.25, 0.25}
	if !reflect.DeepEqual(socket.def.Vector(), want) {
		t.Fatalf("broadcast scalar not written: %v", socket.def)
	}
}

func TestApply_AdditionAssignsMaterialAndTransforms(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name: "add",
		Additions: []plan.PrimitiveAddition{{
			Primitive: "cube",
			Name:      "Marker",
			Location:  plan.Vec3{1, 2, 3},
			Rotation:  plan.Vec3{0, 0, 1.5708},
			Scale:     plan.Vec3{2, 2, 2},
			Material:  "LaserMat",
		}},
	})

	added := scene.objects[len(scene.objects)-1]
	if added.name != "Marker" {
		t.Fatalf("addition rename not applied: %s", added.name)
	}
	if added.rotation != (plan.Vec3{0, 0, 1.5708}) || added.scale != (plan.Vec3{2, 2, 2}) {
		t.Fatalf("addition transform not applied: %+v", added)
	}
	if len(added.materials) != 1 {
		t.Fatalf("material not assigned to new object")
	}
}

func TestApply_UnknownPrimitiveSkips(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	scene.addErr = host.ErrUnknownPrimitive
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name:      "bad",
		Additions: []plan.PrimitiveAddition{{Primitive: "dodecahedron", Scale: plan.Vec3{1, 1, 1}}},
	})

	if a.Skipped() != 1 {
		t.Fatalf("unknown primitive should skip, got %d skips", a.Skipped())
	}
	if rec.mutations[0].Status != output.StatusSkipped {
		t.Fatalf("expected SKIPPED record: %+v", rec.mutations[0])
	}
}

func TestApply_CameraAppliesOnlyPresentFields(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	cam := scene.objects[2]
	cam.rotation = plan.Vec3{1.1, 0, 0.8}
	lens := 50.0
	a := New(scene, rec, "Camera", false)
	a.Apply(&plan.Variation{
		Name:   "cam",
		Camera: &plan.CameraInstruction{Lens: &lens},
	})

	if cam.lens != 50 {
		t.Fatalf("lens not applied: %v", cam.lens)
	}
	if cam.rotation != (plan.Vec3{1.1, 0, 0.8}) {
		t.Fatalf("absent camera fields must stay untouched: %v", cam.rotation)
	}
}

func TestApply_DryRunTouchesNothing(t *testing.T) {
	rec := &recorder{}
	scene := fullScene()
	a := New(scene, rec, "Camera", true)
	a.Apply(fullVariation())

	if scene.calls != 0 {
		t.Fatalf("dry-run must not touch the scene, saw %d calls", scene.calls)
	}
	want := []string{
		"node_override",
		"collection_visibility",
		"object_visibility",
		"translation",
		"addition",
		"camera",
	}
	if got := rec.stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("dry-run record order mismatch: got %v want %v", got, want)
	}
	for _, m := range rec.mutations {
		if m.Status != output.StatusPlanned {
			t.Fatalf("dry-run records must be PLANNED: %+v", m)
		}
	}
	if a.Skipped() != 0 {
		t.Fatalf("dry-run never skips, got %d", a.Skipped())
	}
}

func TestApply_DryRunWorksWithNilScene(t *testing.T) {
	rec := &recorder{}
	a := New(nil, rec, "Camera", true)
	a.Apply(fullVariation())
	if len(rec.mutations) != 6 {
		t.Fatalf("expected 6 planned records, got %d", len(rec.mutations))
	}
}
