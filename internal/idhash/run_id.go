package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeRunID computes a deterministic simulation run id using SHA256.
// Formula: SHA256(input_hash|seed|trials|batch_size|c1,c2,...)
// Worker count is deliberately absent: it never changes the output.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(inputHash string, seed uint64, trials, batchSize int, confidences []float64) string {
	levels := make([]string, len(confidences))
	for i, c := range confidences {
		levels[i] = ftoa(c)
	}

	data := fmt.Sprintf("%s|%d|%d|%d|%s",
		inputHash,
		seed,
		trials,
		batchSize,
		strings.Join(levels, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
