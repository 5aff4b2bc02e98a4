package textutil

import "testing"

func TestSafeFolder(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"domain passes through", "cmn.edu", "cmn.edu"},
		{"www host preserved", "www.gvsu.edu", "www.gvsu.edu"},
		{"whitespace collapses", "  University of  Somewhere ", "University_of_Somewhere"},
		{"separators replaced", "a/b\\c:d", "a_b_c_d"},
		{"reserved punctuation replaced", `x*y?z"w<v>u|t`, "x_y_z_w_v_u_t"},
		{"empty input", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SafeFolder(tc.input); got != tc.want {
				t.Fatalf("SafeFolder(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTernary(t *testing.T) {
	if got := Ternary(true, "a", "b"); got != "a" {
		t.Fatalf("Ternary(true) = %q, want a", got)
	}
	if got := Ternary(false, 1, 2); got != 2 {
		t.Fatalf("Ternary(false) = %d, want 2", got)
	}
}
