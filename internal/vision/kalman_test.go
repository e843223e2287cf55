package vision

import (
	"math"
	"testing"
)

func TestKalmanFirstPredictReturnsNoPrediction(t *testing.T) {
	k := NewKalmanFilter()
	_, ok := k.Predict()
	if ok {
		t.Fatal("first Predict call should return ok=false")
	}
}

func TestKalmanPredictWithoutStateReturnsNoPrediction(t *testing.T) {
	k := NewKalmanFilter()
	k.Predict() // establishes lastPredict timestamp, still no state
	_, ok := k.Predict()
	if ok {
		t.Fatal("Predict before any Update should return ok=false")
	}
}

func TestKalmanUpdateInitialisesState(t *testing.T) {
	k := NewKalmanFilter()
	if k.HasState() {
		t.Fatal("fresh filter should not have state")
	}
	k.Update([4]float64{10, 20, 5, 6})
	if !k.HasState() {
		t.Fatal("filter should have state after first Update")
	}
}

func TestKalmanPredictWithDtReturnsFiniteState(t *testing.T) {
	k := NewKalmanFilter()
	k.Update([4]float64{0, 0, 1, 1})
	k.Update([4]float64{1, 1, 1, 1})
	state := k.predictWithDt(1.0)
	if math.IsNaN(state[0]) || math.IsNaN(state[1]) {
		t.Fatalf("predicted state contains NaN: %v", state)
	}
}

func TestKalmanUpdateConvergesTowardRepeatedMeasurement(t *testing.T) {
	k := NewKalmanFilter()
	target := [4]float64{100, 50, 20, 30}
	for i := 0; i < 50; i++ {
		k.Update(target)
	}
	if math.Abs(k.x[0]-target[0]) > 1.0 {
		t.Errorf("dx did not converge: got %v want ~%v", k.x[0], target[0])
	}
	if math.Abs(k.x[1]-target[1]) > 1.0 {
		t.Errorf("dy did not converge: got %v want ~%v", k.x[1], target[1])
	}
}
