package match

import "testing"

func TestScoreIdentity(t *testing.T) {
	for _, s := range []string{
		"a",
		"resume.pdf",
		"11111111-1111-1111-1111-111111111111",
		"简历.pdf",
	} {
		if got := Score(s, s); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"abc", "abd"},
		{"resume.pdf", "resume_final.pdf"},
		{"", "abc"},
		{"11111111-1111-1111-1111-111111111111", "11111111-1111-1111-1111-111111111112"},
		{"short", "a much longer string"},
	}
	for _, p := range pairs {
		ab := Score(p[0], p[1])
		ba := Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %v but Score(%q, %q) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestScoreRange(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "x"},
		{"abc", "xyz"},
		{"abc", "abcdef"},
		{"same", "same"},
	}
	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, want value in [0,1]", p[0], p[1], got)
		}
	}
}

func TestScorePositionSensitive(t *testing.T) {
	// 字符集相同但位置不同，得分应当很低。
	if got := Score("abc", "bca"); got != 0 {
		t.Errorf("Score(abc, bca) = %v, want 0", got)
	}
	// 仅末位不同的 UUID 应当接近 1。
	a := "11111111-1111-1111-1111-111111111111"
	b := "11111111-1111-1111-1111-111111111112"
	if got := Score(a, b); got <= 0.9 {
		t.Errorf("Score(near-identical uuids) = %v, want > 0.9", got)
	}
}

func TestScoreValues(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abc", "abd", 2.0 / 3.0},
		{"abc", "abcdef", 3.0 / 6.0},
		{"", "abc", 0},
		{"a", "b", 0},
	}
	for _, tc := range cases {
		if got := Score(tc.a, tc.b); got != tc.want {
			t.Errorf("Score(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
