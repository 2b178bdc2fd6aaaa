// Package config holds the static protocol constants and the runtime
// configuration surface of the core consensus engine. Protocol-defined
// constants that are consumed here but derived elsewhere are plain
// exported values, to be overridden by whoever assembles the node.
package config

import "time"

// Protocol-wide tunables. These mirror the constants named throughout the
// component design: committee lookback range, batch sizing and timing,
// and GC bounds.
const (
	// CommitteeLookbackRange offsets the round used to authorize a round
	// of batch proposal, to prevent adaptive committee manipulation.
	CommitteeLookbackRange = 2

	// MaxTransmissionsPerBatch bounds the number of transmissions a
	// single validator may include in one proposed batch.
	MaxTransmissionsPerBatch = 1024

	// MaxTransmissionsTolerance bounds the ready queue of a single
	// worker shard; further unconfirmed pushes to that shard fail with
	// ErrQueueFull. Pushes are not counted per peer.
	MaxTransmissionsTolerance = 2 * MaxTransmissionsPerBatch

	// MinBatchDelay is the minimum time a validator must wait between
	// two of its own proposals.
	MinBatchDelay = 1 * time.Second

	// MaxBatchDelay is carried in the consensus configuration only: no
	// code in this module reads it, and an in-flight proposal is not
	// abandoned on a timer.
	MaxBatchDelay = 5 * time.Second

	// PrimaryPingInterval is the period of the PrimaryPing broadcast.
	PrimaryPingInterval = 10 * time.Second

	// MaxGCRounds is how many trailing rounds storage keeps resident
	// before garbage-collecting.
	MaxGCRounds = 50

	// NumRecentBlocks bounds the sliding window of the "recents" part
	// of a block locator map.
	NumRecentBlocks = 100

	// CheckpointInterval spaces the "checkpoints" part of a block
	// locator map.
	CheckpointInterval = 10000

	// WorkerChannelCapacity bounds the Primary's subscription channel for
	// unconfirmed-transmission pushes from the gateway.
	WorkerChannelCapacity = 1024

	// MaxCertificateFetchDepth bounds the recursive previous-certificate
	// walk when syncing an inbound certificate from a peer.
	MaxCertificateFetchDepth = 64

	// CertificateFetchTimeout bounds how long a single CertificateRequest
	// waits for its Reply before the fetch is abandoned.
	CertificateFetchTimeout = 3 * time.Second
)

// generalConfiguration carries node-identity level settings.
type generalConfiguration struct {
	Network     string
	WorkerCount uint
}

// loggerConfiguration controls the ambient logrus setup.
type loggerConfiguration struct {
	Level  string
	Output string
}

// consensusConfiguration carries the committee/round tunables that are
// legitimately per-deployment (testnet vs mainnet timing, committee
// lookback range) rather than compiled-in constants.
type consensusConfiguration struct {
	CommitteeLookbackRange   uint64
	MaxTransmissionsPerBatch uint
	MinBatchDelay            time.Duration
	MaxBatchDelay            time.Duration
	MaxGCRounds              uint64
}

// storageConfiguration configures the proposal-cache persistence
// boundary.
type storageConfiguration struct {
	ProposalCachePath string
}

// Configuration is the root configuration object.
type Configuration struct {
	General   generalConfiguration
	Logger    loggerConfiguration
	Consensus consensusConfiguration
	Storage   storageConfiguration
}

// Default returns a Configuration populated with the protocol constants
// above, suitable for a single-process test harness or as the base for
// flag/env overrides.
func Default() Configuration {
	return Configuration{
		General: generalConfiguration{
			Network:     "devnet",
			WorkerCount: 4,
		},
		Logger: loggerConfiguration{
			Level:  "info",
			Output: "stdout",
		},
		Consensus: consensusConfiguration{
			CommitteeLookbackRange:   CommitteeLookbackRange,
			MaxTransmissionsPerBatch: MaxTransmissionsPerBatch,
			MinBatchDelay:            MinBatchDelay,
			MaxBatchDelay:            MaxBatchDelay,
			MaxGCRounds:              MaxGCRounds,
		},
		Storage: storageConfiguration{
			ProposalCachePath: "proposal-cache.dat",
		},
	}
}

var current = Default()

// Get returns the process-wide configuration.
func Get() Configuration {
	return current
}

// Load replaces the process-wide configuration, e.g. after parsing flags
// or a config file. It is the caller's responsibility to serialize calls
// to Load against concurrent Get.
func Load(cfg Configuration) {
	current = cfg
}
