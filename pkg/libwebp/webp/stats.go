package webp

// AuxStats reports where the bytes of an encoded frame went.
type AuxStats struct {
	CodedSize int // final size, headers and partition size table included

	// approximate number of bytes spent for the frame header
	// and for the probability updates of partition #0
	HeaderBytes [2]int

	// number of coded bytes and recorded tokens per token partition
	PartitionBytes []int
	TokenCount     []int

	TokenMemory int // bytes used by the token pages of all partitions

	// estimated cost of all token partitions with the final
	// probabilities, in 1/256 bit units
	EstimatedTokenBits uint64

	// number of probability slots updated from the collected statistics
	ProbaUpdates int
}
