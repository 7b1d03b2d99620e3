package walker

import "testing"

var namingTests = []struct {
	chain []string
	out   string
}{
	{[]string{"Box01", "Box01Shape"}, "Box01Shape"},
	{[]string{"Box01", "mesh"}, "Box01"},
	{[]string{"Box01", "Box01Shape", "mesh"}, "Box01Shape"},
	{[]string{"mesh"}, ""},
	{[]string{"object", "Mesh"}, ""},
	{[]string{"", "geometry"}, ""},
	{[]string{"Camera01", "Camera01Shape"}, "Camera01Shape"},
}

func TestDefaultNamingPolicy(t *testing.T) {
	for _, test := range namingTests {
		result := DefaultNamingPolicy(test.chain)
		if result != test.out {
			t.Errorf("DefaultNamingPolicy(%v)=%q; expected %q", test.chain, result, test.out)
		}
	}
}
