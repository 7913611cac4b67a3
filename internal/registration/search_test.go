package registration

import (
	"testing"

	"telecine/internal/perforation"
	"telecine/internal/transport"
)

func TestCrossedReferenceIgnoresMisses(t *testing.T) {
	tests := []struct {
		name string
		res  perforation.Result
		dir  transport.Direction
		want bool
	}{
		{"forward reached", perforation.Result{Found: true, YDiff: -2}, transport.Forward, true},
		{"forward short", perforation.Result{Found: true, YDiff: 6}, transport.Forward, false},
		{"backward reached", perforation.Result{Found: true, YDiff: 3}, transport.Backward, true},
		{"backward short", perforation.Result{Found: true, YDiff: -6}, transport.Backward, false},
		{"forward miss with stale offset", perforation.Result{YDiff: -9}, transport.Forward, false},
		{"backward miss with stale offset", perforation.Result{YDiff: 9}, transport.Backward, false},
		{"zero miss", perforation.Result{}, transport.Forward, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crossedReference(tt.res, tt.dir); got != tt.want {
				t.Fatalf("crossedReference(%+v, %v) = %v, want %v", tt.res, tt.dir, got, tt.want)
			}
		})
	}
}
