package textutil

import "testing"

func TestJobID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/My Clip 01.mov", "tmp-my-clip-01-mov"},
		{"/videos/a  b.mp4", "videos-a--b-mp4"},
		{"---", "job"},
		{"", "job"},
		{"Ünïcode.MP4", "ünïcode-mp4"},
	}
	for _, tc := range tests {
		if got := JobID(tc.path); got != tc.want {
			t.Fatalf("JobID(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[2K\x1b[32m✔\x1b[0m Success \x1b[?25h"
	if got := StripANSI(in); got != "✔ Success " {
		t.Fatalf("StripANSI = %q", got)
	}
}
