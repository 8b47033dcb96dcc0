package timeline

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/fault"
)

func f64(v float64) *float64 { return &v }

func clip(id string, start, end float64) ClipSpec {
	return ClipSpec{
		ClipID:        id,
		SourcePath:    "/media/" + id + ".mp4",
		TimelineStart: start,
		TimelineEnd:   end,
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name         string
		specs        []ClipSpec
		opts         Options
		wantErr      bool
		wantErrPart  string
		wantDuration float64
		wantGaps     int
	}{
		{
			name:    "empty list fails",
			specs:   nil,
			wantErr: true,
		},
		{
			name:         "single clip",
			specs:        []ClipSpec{clip("a", 0, 10)},
			wantDuration: 10,
		},
		{
			name:         "contiguous clips have no gaps",
			specs:        []ClipSpec{clip("a", 0, 10), clip("b", 10, 25)},
			wantDuration: 25,
			wantGaps:     0,
		},
		{
			name:        "overlapping clips fail naming both ids",
			specs:       []ClipSpec{clip("a", 0, 10), clip("b", 5, 15)},
			wantErr:     true,
			wantErrPart: `clip "a"`,
		},
		{
			name:         "gap allowed",
			specs:        []ClipSpec{clip("a", 0, 10), clip("b", 15, 25)},
			opts:         Options{AllowGaps: true},
			wantDuration: 25,
			wantGaps:     1,
		},
		{
			name:        "gap disallowed fails listing span",
			specs:       []ClipSpec{clip("a", 0, 10), clip("b", 15, 25)},
			wantErr:     true,
			wantErrPart: "10.000s-15.000s",
		},
		{
			name:     "leading gap detected",
			specs:    []ClipSpec{clip("a", 2, 10)},
			opts:     Options{AllowGaps: true},
			wantGaps: 1, wantDuration: 10,
		},
		{
			name:         "unsorted input sorted on request",
			specs:        []ClipSpec{clip("b", 10, 20), clip("a", 0, 10)},
			opts:         Options{Sort: true},
			wantDuration: 20,
		},
		{
			name:        "missing clip id names index",
			specs:       []ClipSpec{{SourcePath: "/x.mp4", TimelineStart: 0, TimelineEnd: 1}},
			wantErr:     true,
			wantErrPart: "index 0",
		},
		{
			name:        "end before start fails",
			specs:       []ClipSpec{clip("a", 5, 5)},
			wantErr:     true,
			wantErrPart: "timeline_end",
		},
		{
			name: "negative source start fails",
			specs: []ClipSpec{{
				ClipID: "a", SourcePath: "/x.mp4",
				TimelineStart: 0, TimelineEnd: 5, SourceStart: -1,
			}},
			wantErr:     true,
			wantErrPart: "source_start",
		},
		{
			name: "source end before source start fails",
			specs: []ClipSpec{{
				ClipID: "a", SourcePath: "/x.mp4",
				TimelineStart: 0, TimelineEnd: 5,
				SourceStart: 3, SourceEnd: f64(2),
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.specs, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !fault.IsKind(err, fault.KindAssembly) {
					t.Errorf("expected assembly fault, got %v", err)
				}
				if tt.wantErrPart != "" && !strings.Contains(err.Error(), tt.wantErrPart) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErrPart)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.TotalDuration != tt.wantDuration {
				t.Errorf("total duration = %v, want %v", got.TotalDuration, tt.wantDuration)
			}
			if len(got.Gaps) != tt.wantGaps {
				t.Errorf("gaps = %d, want %d", len(got.Gaps), tt.wantGaps)
			}
			if !got.IsValid() {
				t.Error("assembled timeline should be valid")
			}
		})
	}
}

func TestAssembleGapSpan(t *testing.T) {
	got, err := Assemble([]ClipSpec{clip("a", 0, 10), clip("b", 15, 25)}, Options{AllowGaps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(got.Gaps))
	}
	g := got.Gaps[0]
	if g.Start != 10 || g.End != 15 || g.Duration != 5 {
		t.Errorf("gap = (%v,%v,%v), want (10,15,5)", g.Start, g.End, g.Duration)
	}
}

func TestAssembleReassignsIndexAfterSort(t *testing.T) {
	got, err := Assemble([]ClipSpec{clip("late", 20, 30), clip("early", 0, 10)}, Options{Sort: true, AllowGaps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Clips[0].ClipID != "early" || got.Clips[0].Index != 0 {
		t.Errorf("first clip = %s index %d, want early index 0", got.Clips[0].ClipID, got.Clips[0].Index)
	}
	if got.Clips[1].ClipID != "late" || got.Clips[1].Index != 1 {
		t.Errorf("second clip = %s index %d, want late index 1", got.Clips[1].ClipID, got.Clips[1].Index)
	}
}

func TestClipTrimDuration(t *testing.T) {
	tests := []struct {
		name string
		clip Clip
		want float64
	}{
		{
			name: "explicit trim window",
			clip: Clip{SourceStart: 2, SourceEnd: f64(8), TimelineStart: 0, TimelineEnd: 5},
			want: 6,
		},
		{
			name: "open ended with known source duration",
			clip: Clip{SourceStart: 2, SourceDuration: f64(12), TimelineStart: 0, TimelineEnd: 5},
			want: 10,
		},
		{
			name: "open ended falls back to timeline duration",
			clip: Clip{SourceStart: 0, TimelineStart: 3, TimelineEnd: 9},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.clip.TrimDuration(); got != tt.want {
				t.Errorf("TrimDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
