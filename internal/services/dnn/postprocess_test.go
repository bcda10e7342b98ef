package dnn

import "testing"

func TestDecodeAttributeMajorPicksBestClass(t *testing.T) {
	// Shape [1, 6, 3]: 2 classes, 3 boxes, attribute-major layout.
	dims := []int{1, 6, 3}
	data := []float32{
		100, 200, 300, // cx per box
		110, 210, 310, // cy per box
		20, 30, 40, // w per box
		25, 35, 45, // h per box
		0.9, 0.1, 0.05, // class 0 scores
		0.2, 0.8, 0.1, // class 1 scores
	}

	candidates, err := decodeOutput(data, dims, 0.5)
	if err != nil {
		t.Fatalf("decodeOutput: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates above threshold, got %d", len(candidates))
	}

	first := candidates[0]
	if first.classID != 0 || first.score != 0.9 {
		t.Fatalf("unexpected first candidate: class %d score %v", first.classID, first.score)
	}
	if first.cx != 100 || first.cy != 110 || first.w != 20 || first.h != 25 {
		t.Fatalf("unexpected first box: (%v %v %v %v)", first.cx, first.cy, first.w, first.h)
	}

	second := candidates[1]
	if second.classID != 1 || second.score != 0.8 {
		t.Fatalf("unexpected second candidate: class %d score %v", second.classID, second.score)
	}
}

func TestDecodeBoxMajorAppliesObjectness(t *testing.T) {
	// Shape [1, 2, 7]: 2 boxes, 5+2 attributes with objectness.
	dims := []int{1, 2, 7}
	data := []float32{
		100, 110, 20, 25, 0.9, 0.8, 0.1,
		200, 210, 30, 35, 0.3, 0.9, 0.2,
	}

	candidates, err := decodeOutput(data, dims, 0.5)
	if err != nil {
		t.Fatalf("decodeOutput: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.classID != 0 {
		t.Fatalf("unexpected class %d", got.classID)
	}
	want := float32(0.9) * float32(0.8)
	if got.score != want {
		t.Fatalf("expected objectness-weighted score %v, got %v", want, got.score)
	}
}

func TestDecodeOutputRejectsBadShape(t *testing.T) {
	if _, err := decodeOutput(nil, []int{1, 6}, 0.5); err == nil {
		t.Fatal("expected error for 2-dim shape")
	}
	if _, err := decodeOutput([]float32{1}, []int{1, 6, 3}, 0.5); err == nil {
		t.Fatal("expected error for short tensor")
	}
}

func TestPickDeviceHonorsExplicitChoice(t *testing.T) {
	if got := PickDevice("cpu"); got != DeviceCPU {
		t.Fatalf("expected cpu, got %s", got)
	}
	if got := PickDevice("cuda"); got != DeviceCUDA {
		t.Fatalf("expected cuda, got %s", got)
	}
}

func TestPickDeviceAutoFallsBackToCPU(t *testing.T) {
	old := nvidiaProcPath
	nvidiaProcPath = "/nonexistent/nvidia/version"
	defer func() { nvidiaProcPath = old }()

	if got := PickDevice("auto"); got != DeviceCPU {
		t.Fatalf("expected cpu fallback, got %s", got)
	}
}
