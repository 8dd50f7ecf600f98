package layout

import "testing"

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"#333333", Color{R: 0x33, G: 0x33, B: 0x33, A: 255}},
		{"#abc", Color{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}},
		{"#11223344", Color{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{"444444", Color{R: 0x44, G: 0x44, B: 0x44, A: 255}},
		{"Navy", Color{R: 0, G: 0, B: 0x80, A: 255}},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseColorRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "not-a-color"} {
		if _, err := ParseColor(in); err == nil {
			t.Fatalf("ParseColor(%q) should fail", in)
		}
	}
}
