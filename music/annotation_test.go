package music

import "testing"

func TestAnnotationEmpty(t *testing.T) {
	tests := []struct {
		blob  string
		empty bool
	}{
		{"", true},
		{"   \n", true},
		{"\uFFFC", true},
		{"\uFFFC hold the pedal", false},
		{"play softly", false},
		{`{"ops":[{"insert":"\n"}]}`, true},
		{`{"ops":[{"insert":{"image":"p.png"}},{"insert":"\n"}]}`, true},
		{`{"ops":[{"insert":"slower"},{"insert":"\n"}]}`, false},
		{`{not json`, false},
	}
	for _, tt := range tests {
		if got := AnnotationEmpty(tt.blob); got != tt.empty {
			t.Errorf("AnnotationEmpty(%q) = %v, want %v", tt.blob, got, tt.empty)
		}
	}
}
