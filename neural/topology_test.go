package neural

import "testing"

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in   string
		want []LayerBlock
		ok   bool
	}{
		{"9x2", []LayerBlock{{9, 2}}, true},
		{"9x2, 4", []LayerBlock{{9, 2}, {4, 1}}, true},
		{" 6X3 ,2*2 ", []LayerBlock{{6, 3}, {2, 2}}, true},
		{"", nil, false},
		{"9x", nil, false},
		{"0x2", nil, false},
		{"4x0", nil, false},
		{"a,b", nil, false},
		{"5,,4", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseTopology(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("block %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFormatTopology(t *testing.T) {
	blocks := []LayerBlock{{9, 2}, {4, 1}}
	s := FormatTopology(blocks)
	if s != "9x2,4" {
		t.Fatalf("FormatTopology = %q, want %q", s, "9x2,4")
	}
	back, ok := ParseTopology(s)
	if !ok || len(back) != 2 || back[0] != blocks[0] || back[1] != blocks[1] {
		t.Errorf("ParseTopology(%q) = %v, %v", s, back, ok)
	}
}

func TestIODescriptorsMatchController(t *testing.T) {
	in := Labels(InputDescriptors())
	out := Labels(OutputDescriptors())
	if len(in) != 3 || len(out) != 2 {
		t.Fatalf("descriptor counts = %d/%d, want 3/2", len(in), len(out))
	}
	if in[1] != "Bearing" || out[0] != "Left" {
		t.Errorf("labels = %v %v", in, out)
	}
}
