package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the description changes or the fraction crosses a bucket boundary.
type ProgressSampler struct {
	bucketSize  float64
	lastDesc    string
	lastBucket  int
	initialized bool
}

// NewProgressSampler constructs a sampler that emits when the fraction
// crosses bucket boundaries (default 0.05) or when the description changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 || bucketSize > 1 {
		bucketSize = 0.05
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged.
func (s *ProgressSampler) ShouldLog(fraction float64, description string) bool {
	if s == nil {
		return true
	}
	description = strings.TrimSpace(description)
	emit := false
	if !s.initialized || description != s.lastDesc {
		s.initialized = true
		s.lastDesc = description
		emit = true
	}
	if fraction >= 0 {
		bucket := int(fraction / s.bucketSize)
		if fraction >= 1 {
			bucket = int(1/s.bucketSize) + 1
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state (e.g. when a new run starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastDesc = ""
	s.lastBucket = -1
	s.initialized = false
}
