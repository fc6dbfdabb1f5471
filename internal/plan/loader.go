package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a plan document that cannot be used. It is raised
// before any host interaction begins so a malformed plan never produces a
// partial run.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid render plan: " + e.Detail
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// Overrides carries CLI-level values that take precedence over the document.
type Overrides struct {
	ScenePath string
	OutputDir string
}

// Raw document shapes. Settings fields are pointers so a variation override
// can merge field by field over the documented defaults.
type document struct {
	ScenePath      string         `yaml:"scene_path"`
	OutputDir      string         `yaml:"output_dir"`
	CameraObject   string         `yaml:"camera_object"`
	RenderSettings *settingsDoc   `yaml:"render_settings"`
	Variations     []variationDoc `yaml:"variations"`
}

type settingsDoc struct {
	Engine      *string `yaml:"engine"`
	Samples     *int    `yaml:"samples"`
	ResolutionX *int    `yaml:"resolution_x"`
	ResolutionY *int    `yaml:"resolution_y"`
	UseDenoise  *bool   `yaml:"use_denoise"`
	FileFormat  *string `yaml:"file_format"`
	ColorMode   *string `yaml:"color_mode"`
}

type variationDoc struct {
	Name                 string            `yaml:"name"`
	NodeOverrides        []nodeOverrideDoc `yaml:"node_overrides"`
	Translations         []translationDoc  `yaml:"translations"`
	Additions            []additionDoc     `yaml:"additions"`
	CollectionVisibility []visibilityDoc   `yaml:"collection_visibility"`
	Visibility           []visibilityDoc   `yaml:"visibility"`
	Camera               *cameraDoc        `yaml:"camera"`
	RenderSettings       *settingsDoc      `yaml:"render_settings"`
}

type nodeOverrideDoc struct {
	Material string `yaml:"material"`
	Node     string `yaml:"node"`
	Socket   string `yaml:"socket"`
	Value    any    `yaml:"value"`
}

type translationDoc struct {
	Name   string    `yaml:"name"`
	Offset []float64 `yaml:"offset"`
}

type additionDoc struct {
	Primitive string    `yaml:"primitive"`
	Name      string    `yaml:"name"`
	Location  []float64 `yaml:"location"`
	Rotation  []float64 `yaml:"rotation"`
	Scale     []float64 `yaml:"scale"`
	Material  string    `yaml:"material"`
}

type visibilityDoc struct {
	Name    string `yaml:"name"`
	Visible *bool  `yaml:"visible"`
}

type cameraDoc struct {
	Location []float64 `yaml:"location"`
	Rotation []float64 `yaml:"rotation_euler"`
	Lens     *float64  `yaml:"lens_mm"`
}

// Load reads a YAML plan document and produces a validated RenderPlan, or a
// *ValidationError describing what is wrong with it. Relative paths in the
// document resolve against the document's own directory, not the working
// directory. Overrides win over document values.
func Load(path string, ov Overrides) (*RenderPlan, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, validationErrorf("cannot resolve plan path %s: %v", path, err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, validationErrorf("plan file does not exist: %s", abs)
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, validationErrorf("cannot parse %s: %v", abs, err)
	}

	baseDir := filepath.Dir(abs)

	scenePath := doc.ScenePath
	if ov.ScenePath != "" {
		scenePath = ov.ScenePath
	}
	scenePath = resolvePath(baseDir, scenePath)
	if _, err := os.Stat(scenePath); err != nil {
		return nil, validationErrorf("scene file cannot be found: %s", scenePath)
	}

	outputDir := doc.OutputDir
	if ov.OutputDir != "" {
		outputDir = ov.OutputDir
	}
	if outputDir == "" {
		outputDir = "render_output"
	}
	outputDir = resolvePath(baseDir, outputDir)

	cameraObject := doc.CameraObject
	if cameraObject == "" {
		cameraObject = "Camera"
	}

	base, err := buildSettings(doc.RenderSettings)
	if err != nil {
		return nil, err
	}

	variations := make([]Variation, 0, len(doc.Variations))
	for idx, vd := range doc.Variations {
		v, err := buildVariation(vd, idx)
		if err != nil {
			return nil, err
		}
		variations = append(variations, v)
	}

	return &RenderPlan{
		ScenePath:    scenePath,
		OutputDir:    outputDir,
		CameraObject: cameraObject,
		BaseSettings: base,
		Variations:   variations,
	}, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" {
		return baseDir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}

func buildSettings(doc *settingsDoc) (RenderSettings, error) {
	s := DefaultSettings()
	if doc == nil {
		return s, nil
	}
	if doc.Engine != nil {
		s.Engine = *doc.Engine
	}
	if doc.Samples != nil {
		s.Samples = *doc.Samples
	}
	if doc.ResolutionX != nil {
		s.ResolutionX = *doc.ResolutionX
	}
	if doc.ResolutionY != nil {
		s.ResolutionY = *doc.ResolutionY
	}
	if doc.UseDenoise != nil {
		s.UseDenoise = *doc.UseDenoise
	}
	if doc.FileFormat != nil {
		s.FileFormat = *doc.FileFormat
	}
	if doc.ColorMode != nil {
		s.ColorMode = *doc.ColorMode
	}
	if s.Samples <= 0 {
		return s, validationErrorf("samples must be > 0, got %d", s.Samples)
	}
	if s.ResolutionX <= 0 || s.ResolutionY <= 0 {
		return s, validationErrorf("resolution must be positive, got %dx%d", s.ResolutionX, s.ResolutionY)
	}
	return s, nil
}

func buildVariation(doc variationDoc, idx int) (Variation, error) {
	v := Variation{Name: doc.Name}
	if v.Name == "" {
		v.Name = fmt.Sprintf("variation_%03d", idx)
	}

	for _, o := range doc.NodeOverrides {
		value, err := ParseSocketValue(o.Value)
		if err != nil {
			return v, validationErrorf("variation %s: node override %s/%s.%s: %v",
				v.Name, o.Material, o.Node, o.Socket, err)
		}
		v.NodeOverrides = append(v.NodeOverrides, NodeOverride{
			Material: o.Material,
			Node:     o.Node,
			Socket:   o.Socket,
			Value:    value,
		})
	}

	for _, t := range doc.Translations {
		offset, err := toVec3(t.Offset, Vec3{})
		if err != nil {
			return v, validationErrorf("variation %s: translation %s: %v", v.Name, t.Name, err)
		}
		v.Translations = append(v.Translations, ObjectTranslation{Name: t.Name, Offset: offset})
	}

	for _, a := range doc.Additions {
		primitive := a.Primitive
		if primitive == "" {
			primitive = "cube"
		}
		location, err := toVec3(a.Location, Vec3{})
		if err != nil {
			return v, validationErrorf("variation %s: addition location: %v", v.Name, err)
		}
		rotation, err := toVec3(a.Rotation, Vec3{})
		if err != nil {
			return v, validationErrorf("variation %s: addition rotation: %v", v.Name, err)
		}
		scale, err := toVec3(a.Scale, Vec3{1, 1, 1})
		if err != nil {
			return v, validationErrorf("variation %s: addition scale: %v", v.Name, err)
		}
		v.Additions = append(v.Additions, PrimitiveAddition{
			Primitive: primitive,
			Name:      a.Name,
			Location:  location,
			Rotation:  rotation,
			Scale:     scale,
			Material:  a.Material,
		})
	}

	for _, c := range doc.CollectionVisibility {
		v.CollectionVisibility = append(v.CollectionVisibility, toVisibility(c))
	}
	for _, o := range doc.Visibility {
		v.Visibility = append(v.Visibility, toVisibility(o))
	}

	if doc.Camera != nil {
		cam := &CameraInstruction{Lens: doc.Camera.Lens}
		if doc.Camera.Location != nil {
			loc, err := toVec3(doc.Camera.Location, Vec3{})
			if err != nil {
				return v, validationErrorf("variation %s: camera location: %v", v.Name, err)
			}
			cam.Location = &loc
		}
		if doc.Camera.Rotation != nil {
			rot, err := toVec3(doc.Camera.Rotation, Vec3{})
			if err != nil {
				return v, validationErrorf("variation %s: camera rotation: %v", v.Name, err)
			}
			cam.Rotation = &rot
		}
		v.Camera = cam
	}

	if doc.RenderSettings != nil {
		s, err := buildSettings(doc.RenderSettings)
		if err != nil {
			return v, validationErrorf("variation %s: %v", v.Name, err)
		}
		v.Settings = &s
	}

	return v, nil
}

func toVisibility(doc visibilityDoc) VisibilityOverride {
	visible := true
	if doc.Visible != nil {
		visible = *doc.Visible
	}
	return VisibilityOverride{Name: doc.Name, Visible: visible}
}

func toVec3(values []float64, fallback Vec3) (Vec3, error) {
	if values == nil {
		return fallback, nil
	}
	if len(values) != 3 {
		return Vec3{}, fmt.Errorf("expected 3 components, received %d", len(values))
	}
	return Vec3{values[0], values[1], values[2]}, nil
}

// ParseSocketValue converts a decoded YAML value into a SocketValue. Numbers
// become scalars, sequences of numbers become vectors.
func ParseSocketValue(raw any) (SocketValue, error) {
	switch t := raw.(type) {
	case nil:
		return SocketValue{}, fmt.Errorf("value is required")
	case int:
		return Scalar(float64(t)), nil
	case float64:
		return Scalar(t), nil
	case bool:
		if t {
			return Scalar(1), nil
		}
		return Scalar(0), nil
	case []any:
		vs := make([]float64, 0, len(t))
		for _, item := range t {
			switch n := item.(type) {
			case int:
				vs = append(vs, float64(n))
			case float64:
				vs = append(vs, n)
			default:
				return SocketValue{}, fmt.Errorf("vector component %v is not a number", item)
			}
		}
		return Vector(vs), nil
	default:
		return SocketValue{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
