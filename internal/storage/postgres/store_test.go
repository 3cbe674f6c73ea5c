package postgres

import (
	"reflect"
	"testing"
)

func TestSplitTopics(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: nil},
		{raw: "{}", want: nil},
		{raw: "0xaa,0xbb", want: []string{"0xaa", "0xbb"}},
		{raw: " 0xaa , 0xbb ,", want: []string{"0xaa", "0xbb"}},
		{raw: `{"0xaa","0xbb"}`, want: []string{"0xaa", "0xbb"}},
	}
	for _, tc := range cases {
		got := splitTopics(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitTopics(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
