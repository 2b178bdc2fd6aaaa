package primary

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// cacheVersion is bumped whenever the envelope's encoded shape changes.
// A decode that yields any other version is rejected outright, never
// coerced.
const cacheVersion = 1

var errUnknownCacheVersion = errors.New("primary: proposal cache has an unrecognized version")

// cacheEnvelope is the persisted form of a Primary's proposal cache:
// latest proposed round, the current proposal if any, signed
// proposals, and pending certificates.
type cacheEnvelope struct {
	Version int

	// HasProposal distinguishes "no in-flight proposal" from the zero
	// value of the fields below, since the rest of the envelope is
	// always written regardless of whether one exists.
	HasProposal   bool
	Header        types.BatchHeader
	Transmissions []types.Transmission
	Committee     types.Committee
	Timestamp     time.Time
	Signatures    map[string][]byte

	LastProposedRound uint64

	// SignedProposals flattens Primary.signedProposals (author -> set of
	// rounds already replied to) into parallel slices, rather than
	// persisting the map[string]map[uint64]struct{} directly, so the
	// envelope only ever asks gob to encode ordinary slices and maps.
	SignedProposalAuthors []string
	SignedProposalRounds  [][]uint64

	PendingCertificates []*types.BatchCertificate
}

// SaveCache persists the full proposal cache to path: the last
// proposed round, the in-flight proposal if any, the signed-proposals
// idempotency map, and every certificate still awaiting dependency
// resolution. The write is atomic: encode to a temp file in the same
// directory, then rename over path, so a crash mid-write never leaves
// a half-written cache behind.
func (p *Primary) SaveCache(path string) error {
	p.mu.Lock()
	prop := p.currentProposal
	env := cacheEnvelope{
		Version:           cacheVersion,
		LastProposedRound: p.lastProposedRound,
	}
	for author, rounds := range p.signedProposals {
		list := make([]uint64, 0, len(rounds))
		for round := range rounds {
			list = append(list, round)
		}
		env.SignedProposalAuthors = append(env.SignedProposalAuthors, author)
		env.SignedProposalRounds = append(env.SignedProposalRounds, list)
	}
	for _, cert := range p.pendingCertificates {
		env.PendingCertificates = append(env.PendingCertificates, cert)
	}
	p.mu.Unlock()

	if prop != nil {
		prop.mu.Lock()
		env.HasProposal = true
		env.Header = prop.header
		env.Transmissions = prop.transmissions
		env.Committee = prop.committee
		env.Timestamp = prop.timestamp
		env.Signatures = prop.signatures
		prop.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&env); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".proposal-cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadCache restores the proposal cache from path, if one exists. A
// missing file is not an error (the node had nothing to persist at the
// time it last stopped); a file with an unrecognized version is.
func (p *Primary) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var env cacheEnvelope
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return err
	}
	if env.Version != cacheVersion {
		return errUnknownCacheVersion
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastProposedRound = env.LastProposedRound
	if len(env.SignedProposalAuthors) > 0 {
		restored := make(map[string]map[uint64]struct{}, len(env.SignedProposalAuthors))
		for i, author := range env.SignedProposalAuthors {
			rounds := make(map[uint64]struct{}, len(env.SignedProposalRounds[i]))
			for _, round := range env.SignedProposalRounds[i] {
				rounds[round] = struct{}{}
			}
			restored[author] = rounds
		}
		p.signedProposals = restored
	}

	p.pendingCertificates = make(map[types.CertificateID]*types.BatchCertificate, len(env.PendingCertificates))
	for _, cert := range env.PendingCertificates {
		p.pendingCertificates[cert.ID()] = cert
	}

	if !env.HasProposal {
		p.currentProposal = nil
		return nil
	}

	prop := &proposal{
		header:        env.Header,
		transmissions: env.Transmissions,
		committee:     env.Committee,
		timestamp:     env.Timestamp,
		signatures:    env.Signatures,
	}
	if prop.signatures == nil {
		prop.signatures = make(map[string][]byte)
	}
	p.currentProposal = prop
	return nil
}
