package reachabilitymanager

import (
	"reflect"
	"testing"

	"github.com/tos-network/tosdag/domain/consensus/model"
)

func TestIntervalSize(t *testing.T) {
	tests := []struct {
		interval     *model.ReachabilityInterval
		expectedSize uint64
	}{
		{newReachabilityInterval(0, 0), 0},
		{newReachabilityInterval(5, 6), 1},
		{newReachabilityInterval(100, 200), 100},
	}

	for _, test := range tests {
		if got := intervalSize(test.interval); got != test.expectedSize {
			t.Errorf("intervalSize(%s): got %d, want %d", test.interval, got, test.expectedSize)
		}
	}
}

func TestIntervalSplitInHalf(t *testing.T) {
	tests := []struct {
		interval      *model.ReachabilityInterval
		expectedLeft  *model.ReachabilityInterval
		expectedRight *model.ReachabilityInterval
	}{
		{
			interval:      newReachabilityInterval(0, 10),
			expectedLeft:  newReachabilityInterval(0, 5),
			expectedRight: newReachabilityInterval(5, 10),
		},
		{
			// Odd sizes round the left part up
			interval:      newReachabilityInterval(0, 11),
			expectedLeft:  newReachabilityInterval(0, 6),
			expectedRight: newReachabilityInterval(6, 11),
		},
		{
			interval:      newReachabilityInterval(100, 101),
			expectedLeft:  newReachabilityInterval(100, 101),
			expectedRight: newReachabilityInterval(101, 101),
		},
	}

	for _, test := range tests {
		left, right, err := intervalSplitInHalf(test.interval)
		if err != nil {
			t.Fatalf("intervalSplitInHalf(%s): unexpected error: %s", test.interval, err)
		}
		if !reflect.DeepEqual(left, test.expectedLeft) {
			t.Errorf("intervalSplitInHalf(%s): got left %s, want %s", test.interval, left, test.expectedLeft)
		}
		if !reflect.DeepEqual(right, test.expectedRight) {
			t.Errorf("intervalSplitInHalf(%s): got right %s, want %s", test.interval, right, test.expectedRight)
		}
	}
}

func TestIntervalSplitInHalfEmpty(t *testing.T) {
	_, _, err := intervalSplitInHalf(newReachabilityInterval(7, 7))
	if err == nil {
		t.Fatalf("intervalSplitInHalf: expected an error for an empty interval")
	}
}

func TestIntervalSplitExact(t *testing.T) {
	intervals, err := intervalSplitExact(newReachabilityInterval(0, 10), []uint64{5, 3, 2})
	if err != nil {
		t.Fatalf("intervalSplitExact: unexpected error: %s", err)
	}

	expected := []*model.ReachabilityInterval{
		newReachabilityInterval(0, 5),
		newReachabilityInterval(5, 8),
		newReachabilityInterval(8, 10),
	}
	if !reflect.DeepEqual(intervals, expected) {
		t.Errorf("intervalSplitExact: got %s, want %s", intervals, expected)
	}

	_, err = intervalSplitExact(newReachabilityInterval(0, 10), []uint64{5, 3})
	if err == nil {
		t.Errorf("intervalSplitExact: expected an error when sizes don't sum to the interval size")
	}
}

func TestIntervalSplitWithExponentialBias(t *testing.T) {
	// Exact sum falls back to an exact split
	intervals, err := intervalSplitWithExponentialBias(newReachabilityInterval(0, 10), []uint64{6, 4})
	if err != nil {
		t.Fatalf("intervalSplitWithExponentialBias: unexpected error: %s", err)
	}
	expected := []*model.ReachabilityInterval{
		newReachabilityInterval(0, 6),
		newReachabilityInterval(6, 10),
	}
	if !reflect.DeepEqual(intervals, expected) {
		t.Errorf("intervalSplitWithExponentialBias: got %s, want %s", intervals, expected)
	}

	// Equal subtree sizes share the bias equally
	intervals, err = intervalSplitWithExponentialBias(newReachabilityInterval(0, 100), []uint64{5, 5})
	if err != nil {
		t.Fatalf("intervalSplitWithExponentialBias: unexpected error: %s", err)
	}
	expected = []*model.ReachabilityInterval{
		newReachabilityInterval(0, 50),
		newReachabilityInterval(50, 100),
	}
	if !reflect.DeepEqual(intervals, expected) {
		t.Errorf("intervalSplitWithExponentialBias: got %s, want %s", intervals, expected)
	}

	// The whole interval is always covered with no gaps
	sizes := []uint64{1, 7, 30, 2}
	intervals, err = intervalSplitWithExponentialBias(newReachabilityInterval(0, 1000), sizes)
	if err != nil {
		t.Fatalf("intervalSplitWithExponentialBias: unexpected error: %s", err)
	}
	if intervals[0].Start != 0 || intervals[len(intervals)-1].End != 1000 {
		t.Errorf("intervalSplitWithExponentialBias: split does not cover the interval: %s", intervals)
	}
	for i, interval := range intervals {
		if intervalSize(interval) < sizes[i] {
			t.Errorf("intervalSplitWithExponentialBias: part %d is smaller than its subtree size: %s < %d",
				i, interval, sizes[i])
		}
		if i > 0 && intervals[i-1].End != interval.Start {
			t.Errorf("intervalSplitWithExponentialBias: gap between parts %d and %d: %s", i-1, i, intervals)
		}
	}

	// Oversized subtree sums are rejected
	_, err = intervalSplitWithExponentialBias(newReachabilityInterval(0, 10), []uint64{6, 5})
	if err == nil {
		t.Errorf("intervalSplitWithExponentialBias: expected an error when sizes exceed the interval size")
	}
}

func TestIntervalContains(t *testing.T) {
	tests := []struct {
		outer    *model.ReachabilityInterval
		inner    *model.ReachabilityInterval
		expected bool
	}{
		{newReachabilityInterval(0, 10), newReachabilityInterval(0, 10), true},
		{newReachabilityInterval(0, 10), newReachabilityInterval(3, 7), true},
		{newReachabilityInterval(0, 10), newReachabilityInterval(3, 11), false},
		{newReachabilityInterval(3, 7), newReachabilityInterval(0, 10), false},
		// An empty interval at the bound is still contained
		{newReachabilityInterval(0, 10), newReachabilityInterval(10, 10), true},
	}

	for _, test := range tests {
		if got := intervalContains(test.outer, test.inner); got != test.expected {
			t.Errorf("intervalContains(%s, %s): got %t, want %t", test.outer, test.inner, got, test.expected)
		}
	}
}
