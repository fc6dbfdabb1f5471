package plan

import "strings"

// Sanitize turns a variation name into a filesystem-safe filename stem.
// Path separators, reserved punctuation, control characters, and whitespace
// all collapse to underscores; leading/trailing dots and underscores are
// trimmed so the stem never hides the file or escapes the output directory.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "variation"
	}
	return out
}

// ExtensionFor derives the artifact file extension from a declared image
// format. Blender's OPEN_EXR spelling maps to .exr; everything else uses the
// lowercased format name directly.
func ExtensionFor(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "open_exr", "exr":
		return ".exr"
	case "":
		return ".png"
	default:
		return "." + f
	}
}

// ArtifactName combines a sanitized variation name with the extension for
// the given settings: the `<stem>.<ext>` part of the render artifact layout.
func ArtifactName(variationName string, settings RenderSettings) string {
	return Sanitize(variationName) + ExtensionFor(settings.FileFormat)
}
