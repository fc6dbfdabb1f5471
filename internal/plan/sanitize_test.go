package plan

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lasergrid on/off", "lasergrid_on_off"},
		{"plain", "plain"},
		{"a:b*c?d", "a_b_c_d"},
		{`back\slash`, "back_slash"},
		{"..hidden..", "hidden"},
		{"trailing_ ", "trailing"},
		{"", "variation"},
		{"///", "variation"},
		{"tab\there", "tab_here"},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"PNG", ".png"},
		{"JPEG", ".jpeg"},
		{"OPEN_EXR", ".exr"},
		{"exr", ".exr"},
		{"", ".png"},
		{" TIFF ", ".tiff"},
	}
	for _, tc := range tests {
		if got := ExtensionFor(tc.format); got != tc.want {
			t.Fatalf("ExtensionFor(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestArtifactName(t *testing.T) {
	s := DefaultSettings()
	if got := ArtifactName("laser grid/on", s); got != "laser_grid_on.png" {
		t.Fatalf("ArtifactName mismatch: %q", got)
	}
	s.FileFormat = "OPEN_EXR"
	if got := ArtifactName("hdr", s); got != "hdr.exr" {
		t.Fatalf("ArtifactName mismatch: %q", got)
	}
}
