package x11

import "testing"

func TestBoundingBox(t *testing.T) {
	tests := []struct {
		name     string
		monitors []Monitor
		wantW    int
		wantH    int
	}{
		{"none", nil, 0, 0},
		{"single", []Monitor{{Width: 1920, Height: 1080}}, 1920, 1080},
		{
			name: "side by side with different heights",
			monitors: []Monitor{
				{X: 0, Y: 0, Width: 2560, Height: 1440},
				{X: 2560, Y: 200, Width: 1920, Height: 1080},
			},
			wantW: 4480,
			wantH: 1440,
		},
		{
			name: "stacked",
			monitors: []Monitor{
				{X: 0, Y: 1080, Width: 1920, Height: 1080},
				{X: 0, Y: 0, Width: 1920, Height: 1080},
			},
			wantW: 1920,
			wantH: 2160,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := BoundingBox(tt.monitors)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("BoundingBox() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
