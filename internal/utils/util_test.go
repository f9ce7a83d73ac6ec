package utils_test

import (
	"testing"

	"github.com/sonroyaalmerol/torabot/internal/utils"
)

func TestEscapeMd(t *testing.T) {
	t.Parallel()
	got := utils.EscapeMd("a*b_c`d~e")
	want := `a\*b\_c` + "\\`" + `d\~e`
	if got != want {
		t.Fatalf("EscapeMd = %q, want %q", got, want)
	}
}

func TestPrettyTime(t *testing.T) {
	t.Parallel()
	cases := []struct {
		sec  int
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{754, "12:34"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
	}
	for _, c := range cases {
		if got := utils.PrettyTime(c.sec); got != c.want {
			t.Errorf("PrettyTime(%d) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestShuffleSliceKeepsElements(t *testing.T) {
	t.Parallel()
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := make([]int, len(in))
	copy(got, in)
	utils.ShuffleSlice(got)

	counts := map[int]int{}
	for _, v := range got {
		counts[v]++
	}
	for _, v := range in {
		if counts[v] != 1 {
			t.Fatalf("shuffle changed elements: %v", got)
		}
	}
}
