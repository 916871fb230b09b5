package config

import (
	"errors"
)

const (
	// minimum (and default) number of tokens per page
	MIN_TOKEN_PAGE_SIZE = 2048
	// default size hint for each token partition, in bytes
	DEFAULT_EXPECTED_PARTITION_SIZE = 1024
	// partitions can't be bigger than this, see the frame's size table
	MAX_PARTITION_SIZE = 1 << 24
)

// Token coding parameters.
type Config struct {
	// number of tokens in each page of the token buffers.
	// Values below MIN_TOKEN_PAGE_SIZE are raised to it.
	TokenPageSize int
	// log2(number of token partitions) in [0..3]. Default
	// is set to 0 for easier progressive decoding.
	Partitions int
	// size hint, in bytes, for the initial allocation of each
	// token partition.
	ExpectedPartitionSize int
	// memory budget of each token partition, in bytes. 0 means
	// unbounded (up to MAX_PARTITION_SIZE).
	MaxPartitionSize int
	// memory budget of each token buffer, in pages. 0 = unbounded.
	MaxTokenPages int

	ProbaUpdate bool // if true, refine the probabilities from the statistics.
	ThreadLevel int  // If non-zero, emit up to ThreadLevel partitions in parallel.
	LowMemory   bool // If set, release the tokens as soon as they are emitted.
}

// Should always be called, to initialize a fresh Config structure before
// modification.
func ConfigInit(config *Config) error {
	return config.Init()
}

// Should always be called, to initialize a fresh Config structure before
// modification. Default values: one partition, probability updates on,
// single-threaded.
func (config *Config) Init() error {
	if config == nil {
		return nil
	}

	config.TokenPageSize = MIN_TOKEN_PAGE_SIZE
	config.Partitions = 0
	config.ExpectedPartitionSize = DEFAULT_EXPECTED_PARTITION_SIZE
	config.MaxPartitionSize = 0
	config.MaxTokenPages = 0
	config.ProbaUpdate = true
	config.ThreadLevel = 0
	config.LowMemory = false

	return config.Validate()
}

// Number of token partitions.
func (config *Config) NumPartitions() int {
	return 1 << config.Partitions
}

// Returns nil if 'config' is non-nil and all configuration parameters are
// within their valid ranges.
func (config *Config) Validate() error {
	if config == nil {
		return errors.New("config is nil")
	}
	if config.TokenPageSize < 0 {
		return errors.New("token_page_size must be non-negative")
	}
	if config.Partitions < 0 || config.Partitions > 3 {
		return errors.New("partitions must be between 0 and 3")
	}
	if config.ExpectedPartitionSize < 0 {
		return errors.New("expected_partition_size must be non-negative")
	}
	if config.MaxPartitionSize < 0 || config.MaxPartitionSize > MAX_PARTITION_SIZE {
		return errors.New("max_partition_size must be between 0 and 16M")
	}
	if config.MaxPartitionSize > 0 && config.ExpectedPartitionSize > config.MaxPartitionSize {
		return errors.New("expected_partition_size must not exceed max_partition_size")
	}
	if config.MaxTokenPages < 0 {
		return errors.New("max_token_pages must be non-negative")
	}
	if config.ThreadLevel < 0 || config.ThreadLevel > 8 {
		return errors.New("thread_level must be between 0 and 8")
	}

	return nil
}
