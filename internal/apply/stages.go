package apply

import (
	"errors"
	"fmt"
	"strings"

	"renderplan/internal/host"
	"renderplan/internal/plan"
)

func (a *Applier) applyNodeOverrides(v *plan.Variation) {
	for _, o := range v.NodeOverrides {
		target := fmt.Sprintf("%s/%s.%s", o.Material, o.Node, o.Socket)
		if a.dryRun {
			a.planned("node_override", target, "would set value to "+o.Value.String())
			continue
		}

		material, ok := a.scene.FindMaterial(o.Material)
		if !ok {
			a.skip("node_override", target, fmt.Sprintf("material %s not found", o.Material))
			continue
		}
		if !material.UsesNodes() {
			a.skip("node_override", target, fmt.Sprintf("material %s does not use nodes", o.Material))
			continue
		}
		node, ok := material.FindNode(o.Node)
		if !ok {
			a.skip("node_override", target, fmt.Sprintf("node %s missing in material %s", o.Node, o.Material))
			continue
		}
		socket, ok := node.FindSocket(o.Socket)
		if !ok {
			a.skip("node_override", target, fmt.Sprintf("socket %s missing on node %s", o.Socket, o.Node))
			continue
		}

		value, err := coerceSocketValue(socket.Default(), o.Value)
		if err != nil {
			a.skip("node_override", target, "failed to coerce value: "+err.Error())
			continue
		}
		if err := socket.SetDefault(value); err != nil {
			a.skip("node_override", target, "failed to override value: "+err.Error())
			continue
		}
		a.applied("node_override", target, "set value to "+value.String())
	}
}

// coerceSocketValue shapes the override value to the socket's current value:
// a vector-shaped socket broadcasts a scalar across all components or copies
// a matching-length sequence; a scalar socket accepts only a scalar.
func coerceSocketValue(current, override plan.SocketValue) (plan.SocketValue, error) {
	if current.IsVector() {
		width := len(current.Vector())
		if override.IsVector() {
			if len(override.Vector()) != width {
				return plan.SocketValue{}, fmt.Errorf("expected %d components, received %d",
					width, len(override.Vector()))
			}
			return override, nil
		}
		broadcast := make([]float64, width)
		for i := range broadcast {
			broadcast[i] = override.Scalar()
		}
		return plan.Vector(broadcast), nil
	}
	if override.IsVector() {
		return plan.SocketValue{}, errors.New("cannot coerce a sequence to a scalar socket")
	}
	return override, nil
}

func (a *Applier) applyCollectionVisibility(v *plan.Variation) {
	for _, c := range v.CollectionVisibility {
		state := visibilityWord(c.Visible)
		if a.dryRun {
			a.planned("collection_visibility", c.Name, "would set collection visibility -> "+state)
			continue
		}

		hide := !c.Visible
		collection, found := a.scene.FindCollection(c.Name)
		if found {
			collection.SetHideViewport(hide)
			collection.SetHideRender(hide)
		}

		// A collection may appear multiple times across view-layer trees;
		// every occurrence must be updated. Iterative DFS so deep
		// hierarchies do not grow the stack.
		for _, vl := range a.scene.ViewLayers() {
			stack := []host.LayerCollection{vl.Root()}
			for len(stack) > 0 {
				node := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				stack = append(stack, node.Children()...)
				if node.CollectionName() != c.Name {
					continue
				}
				node.SetHideViewport(hide)
				node.SetExclude(hide)
				node.Collection().SetHideViewport(hide)
				node.Collection().SetHideRender(hide)
			}
		}

		if !found {
			a.skip("collection_visibility", c.Name, fmt.Sprintf("collection %s not found", c.Name))
			continue
		}
		a.applied("collection_visibility", c.Name, "set collection visibility -> "+state)
	}
}

func (a *Applier) applyObjectVisibility(v *plan.Variation) {
	for _, o := range v.Visibility {
		state := visibilityWord(o.Visible)
		if a.dryRun {
			a.planned("object_visibility", o.Name, "would set visibility -> "+state)
			continue
		}

		obj, ok := a.scene.FindObject(o.Name)
		if !ok {
			a.skip("object_visibility", o.Name, fmt.Sprintf("object %s not found", o.Name))
			continue
		}

		hide := !o.Visible
		obj.SetHideRender(hide)
		obj.SetHideViewport(hide)
		if err := obj.HideSet(hide); err != nil {
			// Per-view-layer hide is unavailable on this object's type;
			// the viewport flag is the fallback.
			obj.SetHideViewport(hide)
		}
		a.applied("object_visibility", o.Name, "set visibility -> "+state)
	}
}

func (a *Applier) applyTranslations(v *plan.Variation) {
	for _, t := range v.Translations {
		if a.dryRun {
			a.planned("translation", t.Name, "would translate by "+t.Offset.String())
			continue
		}

		obj, ok := a.scene.FindObject(t.Name)
		if !ok {
			a.skip("translation", t.Name, fmt.Sprintf("object %s not found", t.Name))
			continue
		}

		moved := obj.Location().Add(t.Offset)
		obj.SetLocation(moved)
		a.applied("translation", t.Name,
			fmt.Sprintf("translated by %s to %s", t.Offset, moved))
	}
}

func (a *Applier) applyAdditions(v *plan.Variation) {
	for _, add := range v.Additions {
		target := add.Name
		if target == "" {
			target = add.Primitive
		}
		if a.dryRun {
			a.planned("addition", target,
				fmt.Sprintf("would add %s at %s", add.Primitive, add.Location))
			continue
		}

		obj, err := a.scene.AddPrimitive(add.Primitive, add.Location)
		if err != nil {
			if errors.Is(err, host.ErrUnknownPrimitive) {
				a.skip("addition", target, "unsupported primitive type: "+add.Primitive)
			} else {
				a.skip("addition", target, "failed to add primitive: "+err.Error())
			}
			continue
		}

		if add.Name != "" {
			obj.SetName(add.Name)
		}
		obj.SetRotationEuler(add.Rotation)
		obj.SetScale(add.Scale)

		if add.Material != "" {
			material, ok := a.scene.FindMaterial(add.Material)
			if !ok {
				a.skip("addition", add.Material,
					fmt.Sprintf("material %s not found for new object", add.Material))
			} else {
				obj.AssignMaterial(material)
			}
		}
		a.applied("addition", obj.Name(),
			fmt.Sprintf("added %s at %s", add.Primitive, add.Location))
	}
}

func (a *Applier) applyCamera(v *plan.Variation) {
	if v.Camera == nil {
		return
	}
	instruction := v.Camera

	if a.dryRun {
		a.planned("camera", a.cameraName, "would update camera: "+describeCamera(instruction))
		return
	}

	obj, ok := a.scene.FindObject(a.cameraName)
	if !ok {
		a.skip("camera", a.cameraName, fmt.Sprintf("camera object %s not found", a.cameraName))
		return
	}

	if instruction.Location != nil {
		obj.SetLocation(*instruction.Location)
	}
	if instruction.Rotation != nil {
		obj.SetRotationEuler(*instruction.Rotation)
	}
	if instruction.Lens != nil {
		// Lens applies only when the object's data supports it.
		_ = obj.SetLens(*instruction.Lens)
	}
	a.applied("camera", a.cameraName, "updated camera: "+describeCamera(instruction))
}

func describeCamera(c *plan.CameraInstruction) string {
	var parts []string
	if c.Location != nil {
		parts = append(parts, "location "+c.Location.String())
	}
	if c.Rotation != nil {
		parts = append(parts, "rotation "+c.Rotation.String())
	}
	if c.Lens != nil {
		parts = append(parts, fmt.Sprintf("lens %gmm", *c.Lens))
	}
	if len(parts) == 0 {
		return "no fields set"
	}
	return strings.Join(parts, ", ")
}

func visibilityWord(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}
