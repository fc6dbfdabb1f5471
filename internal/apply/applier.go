// Package apply executes one variation's mutations against a live scene
// handle. Stages run in a fixed order and each mutation is independently
// fault-tolerant: a missing target or a failed value coercion is recorded
// and skipped, never aborting the remaining mutations or the batch.
package apply

import (
	"renderplan/internal/host"
	"renderplan/internal/output"
	"renderplan/internal/plan"
)

// Reporter receives mutation records and warnings. *output.Manager satisfies
// it; tests use an in-memory recorder.
type Reporter interface {
	Write(v any) error
}

// Applier applies variations to a scene. In dry-run mode every mutation is a
// pure no-op that still emits a PLANNED record in the exact order the real
// run would execute, and the scene handle is never touched (it may be nil).
type Applier struct {
	scene      host.Scene
	reporter   Reporter
	cameraName string
	dryRun     bool

	variation string
	skipped   int
}

func New(scene host.Scene, reporter Reporter, cameraName string, dryRun bool) *Applier {
	return &Applier{
		scene:      scene,
		reporter:   reporter,
		cameraName: cameraName,
		dryRun:     dryRun,
	}
}

// stage couples one mutation category with its name in output records.
// The order of this list is the application order contract: node overrides,
// then collection visibility, object visibility, translations, additions,
// and finally the camera instruction. Additions run after translations, so a
// translation can never address a primitive added by the same variation.
type stage struct {
	name string
	run  func(a *Applier, v *plan.Variation)
}

var stages = []stage{
	{"node_override", (*Applier).applyNodeOverrides},
	{"collection_visibility", (*Applier).applyCollectionVisibility},
	{"object_visibility", (*Applier).applyObjectVisibility},
	{"translation", (*Applier).applyTranslations},
	{"addition", (*Applier).applyAdditions},
	{"camera", (*Applier).applyCamera},
}

// Apply runs every stage of the variation in order.
func (a *Applier) Apply(v *plan.Variation) {
	a.variation = v.Name
	for _, st := range stages {
		st.run(a, v)
	}
}

// Skipped reports how many mutations were dropped so far (missing targets,
// coercion failures). Dry-run PLANNED records do not count.
func (a *Applier) Skipped() int { return a.skipped }

func (a *Applier) applied(stage, target, detail string) {
	a.record(stage, target, output.StatusApplied, detail)
}

func (a *Applier) skip(stage, target, detail string) {
	a.skipped++
	a.record(stage, target, output.StatusSkipped, detail)
}

func (a *Applier) planned(stage, target, detail string) {
	a.record(stage, target, output.StatusPlanned, detail)
}

func (a *Applier) record(stage, target string, status output.Status, detail string) {
	_ = a.reporter.Write(output.Mutation{
		Variation: a.variation,
		Stage:     stage,
		Target:    target,
		Status:    status,
		Detail:    detail,
	})
}
