package normalize

import "testing"

func TestField(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Cafe Blue", "Cafe Blue"},
		{"fullwidth ascii", "ＣＡＦＥ１２３", "CAFE123"},
		{"halfwidth katakana", "ｶﾌｪ ｵﾚ", "カフェ オレ"},
		{"fullwidth space trim", "　店名　", "店名"},
		{"whitespace collapse", "a \t  b\n c", "a b c"},
		{"mixed", "　Ｃａｆｅ  ｱﾄﾘｴ　", "Cafe アトリエ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Field(tc.in); got != tc.want {
				t.Fatalf("Field(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPrefecture(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "東京都", "東京都"},
		{"surrounding space", " 東京都 ", "東京都"},
		{"fullwidth space inside", "東京　都", "東京都"},
		{"internal spaces removed", "大 阪 府", "大阪府"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Prefecture(tc.in); got != tc.want {
				t.Fatalf("Prefecture(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
