// Package scenedoc is the reference host backend. It loads a YAML scene
// document describing an object graph (objects, materials with node sockets,
// nested collections, view-layer trees) and implements the full host
// capability surface over it in memory. Rendering materializes a placeholder
// image at the configured resolution; the backend issues no 3D work.
package scenedoc

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"renderplan/internal/host"
	"renderplan/internal/plan"
)

// BackendName is the registry name for this backend.
const BackendName = "scenedoc"

func init() {
	host.Register(Backend{})
}

// Backend implements host.Host. It is stateless; every LoadScene parses the
// document fresh, which is what gives variations their clean slate.
type Backend struct{}

func (Backend) Name() string { return BackendName }

func (Backend) LoadScene(path string) (host.Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene document: %w", err)
	}
	var doc sceneDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse scene document %s: %w", path, err)
	}
	return buildScene(&doc)
}

// Document shapes.

type sceneDoc struct {
	Objects     []objectDoc     `yaml:"objects"`
	Materials   []materialDoc   `yaml:"materials"`
	Collections []collectionDoc `yaml:"collections"`
	ViewLayers  []viewLayerDoc  `yaml:"view_layers"`
}

type objectDoc struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Location []float64 `yaml:"location"`
	Rotation []float64 `yaml:"rotation"`
	Scale    []float64 `yaml:"scale"`
	Material string    `yaml:"material"`
	Hidden   bool      `yaml:"hidden"`
	Lens     *float64  `yaml:"lens_mm"`
}

type materialDoc struct {
	Name     string    `yaml:"name"`
	UseNodes *bool     `yaml:"use_nodes"`
	Nodes    []nodeDoc `yaml:"nodes"`
}

type nodeDoc struct {
	Name    string         `yaml:"name"`
	Inputs  map[string]any `yaml:"inputs"`
	Outputs map[string]any `yaml:"outputs"`
}

type collectionDoc struct {
	Name     string          `yaml:"name"`
	Children []collectionDoc `yaml:"children"`
}

type viewLayerDoc struct {
	Name string             `yaml:"name"`
	Root layerCollectionDoc `yaml:"root"`
}

type layerCollectionDoc struct {
	Collection string               `yaml:"collection"`
	Children   []layerCollectionDoc `yaml:"children"`
}

func buildScene(doc *sceneDoc) (*docScene, error) {
	s := &docScene{
		materials:   make(map[string]*material),
		collections: make(map[string]*collection),
	}

	for _, md := range doc.Materials {
		m, err := buildMaterial(md)
		if err != nil {
			return nil, err
		}
		if _, exists := s.materials[m.name]; exists {
			return nil, fmt.Errorf("duplicate material %q", m.name)
		}
		s.materials[m.name] = m
	}

	for _, od := range doc.Objects {
		obj, err := buildObject(s, od)
		if err != nil {
			return nil, err
		}
		s.objects = append(s.objects, obj)
	}

	for _, cd := range doc.Collections {
		if err := s.indexCollection(cd); err != nil {
			return nil, err
		}
	}

	for _, vd := range doc.ViewLayers {
		root, err := s.buildLayerCollection(vd.Root)
		if err != nil {
			return nil, fmt.Errorf("view layer %s: %w", vd.Name, err)
		}
		s.viewLayers = append(s.viewLayers, &viewLayer{name: vd.Name, root: root})
	}

	return s, nil
}

func buildObject(s *docScene, od objectDoc) (*object, error) {
	if od.Name == "" {
		return nil, fmt.Errorf("object without a name")
	}
	kind := od.Type
	if kind == "" {
		kind = "MESH"
	}
	obj := &object{
		name:     od.Name,
		kind:     kind,
		scale:    plan.Vec3{1, 1, 1},
		hiddenVL: od.Hidden,
		lens:     od.Lens,
	}
	var err error
	if obj.location, err = docVec3(od.Location, plan.Vec3{}); err != nil {
		return nil, fmt.Errorf("object %s location: %w", od.Name, err)
	}
	if obj.rotation, err = docVec3(od.Rotation, plan.Vec3{}); err != nil {
		return nil, fmt.Errorf("object %s rotation: %w", od.Name, err)
	}
	if obj.scale, err = docVec3(od.Scale, plan.Vec3{1, 1, 1}); err != nil {
		return nil, fmt.Errorf("object %s scale: %w", od.Name, err)
	}
	if od.Material != "" {
		m, ok := s.materials[od.Material]
		if !ok {
			return nil, fmt.Errorf("object %s references unknown material %q", od.Name, od.Material)
		}
		obj.slots = append(obj.slots, m)
	}
	return obj, nil
}

func buildMaterial(md materialDoc) (*material, error) {
	if md.Name == "" {
		return nil, fmt.Errorf("material without a name")
	}
	useNodes := true
	if md.UseNodes != nil {
		useNodes = *md.UseNodes
	}
	m := &material{name: md.Name, useNodes: useNodes}
	for _, nd := range md.Nodes {
		if nd.Name == "" {
			return nil, fmt.Errorf("material %s has a node without a name", md.Name)
		}
		n := &node{name: nd.Name}
		var err error
		if n.inputs, err = buildSockets(nd.Inputs); err != nil {
			return nil, fmt.Errorf("material %s node %s inputs: %w", md.Name, nd.Name, err)
		}
		if n.outputs, err = buildSockets(nd.Outputs); err != nil {
			return nil, fmt.Errorf("material %s node %s outputs: %w", md.Name, nd.Name, err)
		}
		m.nodes = append(m.nodes, n)
	}
	return m, nil
}

// buildSockets converts a name→value mapping into sockets, sorted by name so
// enumeration order is stable across loads.
func buildSockets(values map[string]any) ([]*socket, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*socket, 0, len(names))
	for _, name := range names {
		v, err := plan.ParseSocketValue(values[name])
		if err != nil {
			return nil, fmt.Errorf("socket %s: %w", name, err)
		}
		out = append(out, &socket{name: name, value: v})
	}
	return out, nil
}

func (s *docScene) indexCollection(cd collectionDoc) error {
	if cd.Name == "" {
		return fmt.Errorf("collection without a name")
	}
	if _, exists := s.collections[cd.Name]; exists {
		return fmt.Errorf("duplicate collection %q", cd.Name)
	}
	s.collections[cd.Name] = &collection{name: cd.Name}
	for _, child := range cd.Children {
		if err := s.indexCollection(child); err != nil {
			return err
		}
	}
	return nil
}

func (s *docScene) buildLayerCollection(ld layerCollectionDoc) (*layerCollection, error) {
	coll, ok := s.collections[ld.Collection]
	if !ok {
		return nil, fmt.Errorf("layer collection references unknown collection %q", ld.Collection)
	}
	lc := &layerCollection{collection: coll}
	for _, child := range ld.Children {
		childLC, err := s.buildLayerCollection(child)
		if err != nil {
			return nil, err
		}
		lc.children = append(lc.children, childLC)
	}
	return lc, nil
}

func docVec3(values []float64, fallback plan.Vec3) (plan.Vec3, error) {
	if values == nil {
		return fallback, nil
	}
	if len(values) != 3 {
		return plan.Vec3{}, fmt.Errorf("expected 3 components, received %d", len(values))
	}
	return plan.Vec3{values[0], values[1], values[2]}, nil
}
