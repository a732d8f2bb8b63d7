package domain

import "math/bits"

// Fingerprint is a 64-bit perceptual hash of an image. Visually similar images
// have fingerprints with a small Hamming distance.
type Fingerprint uint64

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// ImageAsset is a downloaded and successfully decoded image.
type ImageAsset struct {
	// Path is the file path of the image.
	Path string
	// Fingerprint is the perceptual hash computed from the decoded image.
	Fingerprint Fingerprint
}

// Cluster is one connected component of the similarity graph.
type Cluster struct {
	// ID is the group identifier. It is only stable for identical inputs.
	ID int
	// Members holds the image paths of the cluster, sorted.
	Members []string
}
