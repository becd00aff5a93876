// Package util provides small statistics helpers shared by the engine
// implementations. The size histogram tracks value-size distributions with
// exponential buckets so that engine info reporting never needs a full
// scan.
package util

import "sync"

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// SizeHistogram tracks the distribution of data sizes in exponential
// buckets, covering single bytes up to multi-gigabyte values with fixed
// memory overhead.
type SizeHistogram struct {
	mutex      sync.RWMutex
	boundaries []int
	buckets    []int64
	count      int64
	sum        int64
}

// NewSizeHistogram creates a size histogram with the default bucket
// boundaries.
func NewSizeHistogram() *SizeHistogram {
	boundaries := []int{
		16, 64, 256, 1024, 4096, // 16B to 4KB
		16384, 65536, 262144, 1048576, // 16KB to 1MB
		4194304, 16777216, 67108864, // 4MB to 64MB
		268435456, 1073741824, 4294967296, // 256MB to 4GB
	}
	return &SizeHistogram{
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1),
	}
}

// AddSample records one size sample.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	bucket := len(h.boundaries) // overflow bucket
	for i, boundary := range h.boundaries {
		if size <= boundary {
			bucket = i
			break
		}
	}
	h.buckets[bucket]++
	h.count++
	h.sum += int64(size)
}

// GetCount returns the total number of samples.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) GetCount() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// AverageSize returns the mean sample size.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// MedianEstimate estimates the median sample size from the bucket counts.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) MedianEstimate() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}

	target := h.count / 2
	cumulative := int64(0)
	for i, count := range h.buckets {
		cumulative += count
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return h.boundaries[0] / 2
		case i < len(h.boundaries):
			return (h.boundaries[i-1] + h.boundaries[i]) / 2
		default:
			// overflow bucket, estimate as twice the last boundary
			return h.boundaries[len(h.boundaries)-1] * 2
		}
	}
	return int(h.sum / h.count)
}
