package config

// Block limits (consensus-critical).
const (
	MaxBlockSize   = 2_000_000 // 2 MB max serialized block size
	MaxBlockTxs    = 10_000    // Max transactions per block
	MaxTxSize      = 500_000   // Max size of a single transaction payload
	MaxHeaderSize  = 1024      // Max encoded header size, signature included
	MaxWitnessSize = 128       // Max witness signature length accepted on the wire
)

// Block versions.
const (
	BlockVersion    = 1 // The block version produced by this software.
	MaxBlockVersion = 1 // Bump when a fork introduces a new block version.
)
