package queue

import "testing"

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Sampled "); !ok || s != StatusSampled {
		t.Fatalf("unexpected parse: %q %v", s, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Fatal("unknown status should not parse")
	}
}

func TestLaneForItem(t *testing.T) {
	tests := []struct {
		item Item
		want ProcessingLane
	}{
		{item: Item{Status: StatusPending}, want: LaneIntake},
		{item: Item{Status: StatusSampled}, want: LaneIntake},
		{item: Item{Status: StatusAnnotated}, want: LaneRedaction},
		{item: Item{Status: StatusFailed}, want: LaneIntake},
		{item: Item{Status: StatusFailed, Mode: ModeAuto}, want: LaneRedaction},
	}
	for _, tc := range tests {
		if got := LaneForItem(&tc.item); got != tc.want {
			t.Errorf("%s/%s: expected %s, got %s", tc.item.Status, tc.item.Mode, tc.want, got)
		}
	}
}

func TestHasRedactionPlan(t *testing.T) {
	if (Item{Mode: ModeGuided, NormalizedFile: "n.mp4"}).HasRedactionPlan() {
		t.Fatal("guided without guide data has no plan")
	}
	if !(Item{Mode: ModeAuto, NormalizedFile: "n.mp4"}).HasRedactionPlan() {
		t.Fatal("auto with a normalized file has a plan")
	}
}

func TestOutputName(t *testing.T) {
	if got := (Item{SourceName: "Front Door.MOV"}).OutputName(); got != "front_door-redacted.mp4" {
		t.Fatalf("unexpected output name %q", got)
	}
	if got := (Item{}).OutputName(); got != "video-redacted.mp4" {
		t.Fatalf("unexpected fallback output name %q", got)
	}
}
