package sheet

import "testing"

func TestParseLength(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"45", 45},
		{"45.25", 45.25},
		{"1:30", 90},
		{"1:30.5", 90.5},
		{"01:02:03", 3723},
		{"01:02:03.5", 3723.5},
		{"0:01:00:15", 60.5},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLength(tc.input)
			if err != nil {
				t.Fatalf("ParseLength(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseLength(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseLengthRejectsMalformedValues(t *testing.T) {
	for _, input := range []string{"", "a:b", "1:2:3:4:5", "1.5:30", "-5", "1:xx"} {
		if _, err := ParseLength(input); err == nil {
			t.Fatalf("ParseLength(%q) should fail", input)
		}
	}
}
