package storage

import (
	"testing"
)

func TestTagKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"105", "105"},
		{"bldg-7", "bldg-7"},
		{"east wing", "east_wing"},
		{"a/b.c", "a_b_c"},
	}

	for _, tc := range tests {
		if got := tagKey(tc.input); got != tc.expected {
			t.Errorf("tagKey(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestBucketNames(t *testing.T) {
	if BucketReports == BucketGroundTruth {
		t.Error("bucket names must be distinct")
	}
	for _, name := range []string{BucketReports, BucketGroundTruth} {
		if name == "" {
			t.Error("bucket name must not be empty")
		}
	}
}
