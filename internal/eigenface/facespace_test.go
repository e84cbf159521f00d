package eigenface

import (
	"errors"
	"math"
	"testing"
)

func TestTrainBasic(t *testing.T) {
	labels := []string{"alice", "bob", "carol", "dave"}
	set := testTrainingSet(10, 10, 4, labels)
	builder := testBuilder(10, 10)

	model, err := builder.Train(set, 3)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// 4 images yield rank at most 3 after centering.
	if model.K() != 3 {
		t.Errorf("K = %d, want 3", model.K())
	}
	if len(model.Projections) != 4 {
		t.Errorf("%d projections, want 4", len(model.Projections))
	}
	for i, label := range labels {
		if model.Labels[i] != label {
			t.Errorf("label %d = %q, want %q (training order must be preserved)", i, model.Labels[i], label)
		}
	}
	if err := model.Validate(); err != nil {
		t.Errorf("trained model failed validation: %v", err)
	}

	// Mean face must be the per-pixel average of the training vectors.
	vectorizer := builder.Vectorizer
	want := make([]float64, vectorizer.Dim())
	for _, sample := range set {
		vec, err := vectorizer.Vectorize(sample.Image)
		if err != nil {
			t.Fatalf("Vectorize failed: %v", err)
		}
		for d, val := range vec {
			want[d] += val / float64(len(set))
		}
	}
	for d := range want {
		if math.Abs(model.MeanFace[d]-want[d]) > 1e-9 {
			t.Fatalf("mean face differs at pixel %d: %g vs %g", d, model.MeanFace[d], want[d])
		}
	}
}

func TestTrainInsufficientData(t *testing.T) {
	builder := testBuilder(10, 10)

	for _, count := range []int{0, 1} {
		set := testTrainingSet(10, 10, count, []string{"alice"})
		if _, err := builder.Train(set, 3); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Train with %d images: got %v, want ErrInsufficientData", count, err)
		}
	}
}

func TestTrainDimensionMismatch(t *testing.T) {
	builder := testBuilder(10, 10)
	set := TrainingSet{
		{Image: patternImage(10, 10, 0), Label: "alice"},
		{Image: patternImage(8, 10, 1), Label: "bob"}, // wrong size
	}
	if _, err := builder.Train(set, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestTrainReducedK(t *testing.T) {
	// Two images have a single informative direction; asking for 5
	// eigenfaces must come back with 1, not an error.
	set := testTrainingSet(10, 10, 2, []string{"alice", "bob"})
	model, err := testBuilder(10, 10).Train(set, 5)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if model.K() != 1 {
		t.Errorf("K = %d, want 1", model.K())
	}
}

func TestTrainNoVariance(t *testing.T) {
	// Identical images leave nothing for the face space to capture.
	img := patternImage(10, 10, 0)
	set := TrainingSet{
		{Image: img, Label: "alice"},
		{Image: img, Label: "alice"},
	}
	if _, err := testBuilder(10, 10).Train(set, 2); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestTrainEigenvaluesNonIncreasing(t *testing.T) {
	set := testTrainingSet(12, 12, 6, []string{"a", "b", "c", "d", "e", "f"})
	model, err := testBuilder(12, 12).Train(set, 5)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	for i := 1; i < len(model.Eigenvalues); i++ {
		if model.Eigenvalues[i] > model.Eigenvalues[i-1] {
			t.Errorf("eigenvalues out of order at %d: %g > %g",
				i, model.Eigenvalues[i], model.Eigenvalues[i-1])
		}
	}
	for i, face := range model.Eigenfaces {
		if norm := vecNorm(face); math.Abs(norm-1) > 1e-9 {
			t.Errorf("eigenface %d has norm %g, want 1", i, norm)
		}
	}
}

func TestTrainOrderInvariantWithinLabel(t *testing.T) {
	// Swapping two images of the same person must not change which
	// people the model knows or how many directions it retains.
	a1 := patternImage(10, 10, 0)
	a2 := patternImage(10, 10, 1)
	b := patternImage(10, 10, 2)

	first, err := testBuilder(10, 10).Train(TrainingSet{
		{Image: a1, Label: "alice"},
		{Image: a2, Label: "alice"},
		{Image: b, Label: "bob"},
	}, 2)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	second, err := testBuilder(10, 10).Train(TrainingSet{
		{Image: a2, Label: "alice"},
		{Image: a1, Label: "alice"},
		{Image: b, Label: "bob"},
	}, 2)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if first.K() != second.K() {
		t.Errorf("K differs across orderings: %d vs %d", first.K(), second.K())
	}
	for _, m := range []*Model{first, second} {
		res, err := Recognize(m, a1, math.Inf(1))
		if err != nil {
			t.Fatalf("Recognize failed: %v", err)
		}
		if res.Label != "alice" {
			t.Errorf("expected alice regardless of within-label order, got %q", res.Label)
		}
	}
}

func TestReconstructionImprovesWithK(t *testing.T) {
	set := testTrainingSet(12, 12, 6, []string{"a", "b", "c", "d", "e", "f"})
	vectorizer := Vectorizer{Width: 12, Height: 12}
	original, err := vectorizer.Vectorize(set[0].Image)
	if err != nil {
		t.Fatalf("Vectorize failed: %v", err)
	}

	var prevErr float64 = math.Inf(1)
	for _, k := range []int{1, 3, 5} {
		model, err := testBuilder(12, 12).Train(set, k)
		if err != nil {
			t.Fatalf("Train with k=%d failed: %v", k, err)
		}

		rebuilt := Reconstruct(model, Project(model, original))
		var errNorm float64
		for d := range original {
			diff := rebuilt[d] - original[d]
			errNorm += diff * diff
		}
		errNorm = math.Sqrt(errNorm)

		if errNorm > prevErr+1e-6 {
			t.Errorf("reconstruction error grew from %g to %g as k rose to %d", prevErr, errNorm, k)
		}
		prevErr = errNorm
	}
}

func TestTrainProgressCallback(t *testing.T) {
	set := testTrainingSet(10, 10, 3, []string{"a", "b", "c"})
	builder := testBuilder(10, 10)

	phases := make(map[string]int)
	builder.OnProgress = func(info ProgressInfo) {
		phases[info.Phase]++
	}
	if _, err := builder.Train(set, 2); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if phases["vectorizing"] != 3 {
		t.Errorf("vectorizing reported %d times, want 3", phases["vectorizing"])
	}
	if phases["projecting"] != 3 {
		t.Errorf("projecting reported %d times, want 3", phases["projecting"])
	}
	if phases["decomposing"] == 0 {
		t.Error("decomposing phase never reported")
	}
}
