// Package host defines the capability surface the render pipeline needs from
// a 3D content-creation application: name-based lookup into the live object
// graph, a handful of mutation setters, and a single-frame render call.
// Backends register themselves by name (see Register); the pipeline never
// imports a concrete backend.
package host

import (
	"context"
	"errors"

	"renderplan/internal/plan"
)

// ErrUnsupported reports that an optional capability (per-view-layer hide,
// camera lens) is absent on the target's current type. Callers fall back or
// skip; it is never fatal.
var ErrUnsupported = errors.New("capability not supported by target")

// ErrUnknownPrimitive reports a primitive kind the host cannot instantiate.
var ErrUnknownPrimitive = errors.New("unknown primitive kind")

// Host opens scenes. Every LoadScene call returns a fresh scene built from
// the file on disk; reloading is the isolation mechanism between variations.
type Host interface {
	// Name identifies the backend (the value passed to --host).
	Name() string
	LoadScene(path string) (Scene, error)
}

// RenderConfig is the engine-independent part of render configuration. It is
// always applied in full; engine-specific sampling goes through SetSampling.
type RenderConfig struct {
	Engine      string
	FilePath    string
	FileFormat  string
	ColorMode   string
	ResolutionX int
	ResolutionY int
}

// Scene is a mutable handle onto one loaded scene. Lookups return false for
// missing names; the pipeline treats those as skippable, not fatal.
type Scene interface {
	FindObject(name string) (Object, bool)
	FindMaterial(name string) (Material, bool)
	FindCollection(name string) (Collection, bool)
	ViewLayers() []ViewLayer

	// Objects enumerates every object in the scene, in a stable order.
	Objects() []Object

	// AddPrimitive instantiates a primitive of the given kind at location
	// and returns the newly active object. Unsupported kinds return
	// ErrUnknownPrimitive.
	AddPrimitive(kind string, location plan.Vec3) (Object, error)

	ConfigureRender(cfg RenderConfig) error

	// SetSampling applies engine-specific sample count and denoise flag.
	// The render driver calls it only for engines it recognizes.
	SetSampling(samples int, denoise bool) error

	// Render writes a single still image to the configured file path,
	// returning once the image is on disk. Honors ctx cancellation.
	Render(ctx context.Context) error
}

// Object is one scene object (mesh, light, camera, ...).
type Object interface {
	Name() string
	SetName(name string)
	Kind() string

	Location() plan.Vec3
	SetLocation(v plan.Vec3)
	RotationEuler() plan.Vec3
	SetRotationEuler(v plan.Vec3)
	Scale() plan.Vec3
	SetScale(v plan.Vec3)

	SetHideViewport(hide bool)
	SetHideRender(hide bool)
	// HideSet is the selective per-view-layer hide. Objects whose current
	// type lacks the capability return ErrUnsupported; callers fall back to
	// the viewport flag.
	HideSet(hide bool) error
	Hidden() bool

	// SetLens sets the camera focal length. Non-camera data returns
	// ErrUnsupported.
	SetLens(mm float64) error

	// AssignMaterial puts the material into slot 0 if the object already
	// has a slot, or appends it as a new slot otherwise.
	AssignMaterial(m Material)
}

// Material is a named material that may carry a node graph.
type Material interface {
	Name() string
	UsesNodes() bool
	FindNode(name string) (Node, bool)
}

// Node is one node inside a material's node graph.
type Node interface {
	Name() string
	// FindSocket searches input sockets first, then outputs.
	FindSocket(name string) (Socket, bool)
}

// Socket is a node input or output carrying a default value.
type Socket interface {
	Name() string
	Default() plan.SocketValue
	SetDefault(v plan.SocketValue) error
}

// Collection is a named object collection with global hide flags.
type Collection interface {
	Name() string
	SetHideViewport(hide bool)
	SetHideRender(hide bool)
}

// ViewLayer wraps a layer-collection tree. A collection may appear multiple
// times across the hierarchy; visibility overrides must update every node.
type ViewLayer interface {
	Name() string
	Root() LayerCollection
}

// LayerCollection is one node of a view layer's collection tree.
type LayerCollection interface {
	CollectionName() string
	Children() []LayerCollection
	SetHideViewport(hide bool)
	SetExclude(exclude bool)
	Collection() Collection
}
