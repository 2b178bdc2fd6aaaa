// Package primary implements the per-validator proposal orchestrator:
// the propose loop that turns drained worker transmissions into a
// certified batch, plus the handlers that respond to peers' proposals
// and accumulate signatures for the node's own.
package primary

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/config"
	"github.com/nyx-network/nyx-bft/pkg/core/asyncutil"
	"github.com/nyx-network/nyx-bft/pkg/core/ledgerservice"
	"github.com/nyx-network/nyx-bft/pkg/core/storage"
	blocksync "github.com/nyx-network/nyx-bft/pkg/core/sync"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
	"github.com/nyx-network/nyx-bft/pkg/core/worker"
	"github.com/nyx-network/nyx-bft/pkg/crypto"
	"github.com/nyx-network/nyx-bft/pkg/gateway"
)

// pingProtocolVersion tags the wire shape of an outbound PrimaryPing,
// distinct from cacheVersion which tags the persisted proposal cache.
const pingProtocolVersion = 1

var log = logger.WithFields(logger.Fields{"process": "primary"})

// Signer is the narrow signing capability the Primary needs from a
// validator account.
type Signer interface {
	Address() string
	Sign(message []byte) []byte
}

// Primary is the per-validator proposal orchestrator.
type Primary struct {
	account Signer
	keys    *crypto.KeyRing
	storage *storage.DAG
	ledger  ledgerservice.Ledger
	workers *worker.Pool
	broker  gateway.Broker

	bftSender chan<- *types.BatchCertificate

	proposing sync.Mutex // non-reentrant propose lock (TryLock: contention skips silently)

	mu                    sync.Mutex
	currentProposal       *proposal
	lastProposedRound     uint64
	lastProposalTimestamp time.Time

	// signedProposals tracks, per (author,round), whether this node has
	// already replied with a signature, so repeated BatchPropose asks
	// are idempotent.
	signedProposals map[string]map[uint64]struct{}

	connected map[string]struct{}

	shuttingDown int32

	// pool dispatches signature creation and certificate storage
	// insertion off the calling goroutine. Nil runs both synchronously,
	// the default until SetAsyncPool is called.
	pool *asyncutil.Pool

	// pendingCertificates holds inbound certificates whose dependency
	// chain (previous certificates or referenced transmissions) has not
	// yet fully resolved, keyed by certificate id. Persisted as part of
	// the proposal cache so a restart does not silently drop an
	// in-flight sync.
	pendingCertificates map[types.CertificateID]*types.BatchCertificate

	// tracker is the block-sync view wired by Run, used to fold inbound
	// PrimaryPing locators into the common-ancestor map and to populate
	// outbound pings. Nil until Run is called with one.
	tracker *blocksync.Tracker

	cachePath string
	done      chan struct{}
}

// New constructs a Primary. bftSender may be nil if this node runs
// without a BFT commit layer attached.
func New(account Signer, keys *crypto.KeyRing, dag *storage.DAG, ledger ledgerservice.Ledger, workers *worker.Pool, broker gateway.Broker, bftSender chan<- *types.BatchCertificate) *Primary {
	p := &Primary{
		account:             account,
		keys:                keys,
		storage:             dag,
		ledger:              ledger,
		workers:             workers,
		broker:              broker,
		bftSender:           bftSender,
		signedProposals:     make(map[string]map[uint64]struct{}),
		connected:           make(map[string]struct{}),
		pendingCertificates: make(map[types.CertificateID]*types.BatchCertificate),
	}
	workers.SetStorageLookup(dag.ContainsTransmission)
	workers.SetProposalLookup(p.proposalContains)
	return p
}

// SetAsyncPool wires a bounded worker pool that signing and storage
// insertion dispatch to instead of running on the calling goroutine.
// Nil-safe: both run synchronously if never called.
func (p *Primary) SetAsyncPool(pool *asyncutil.Pool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool = pool
}

// runBlocking dispatches job to the async pool if one is wired, and
// blocks until it completes either way.
func (p *Primary) runBlocking(job func()) {
	p.mu.Lock()
	pool := p.pool
	p.mu.Unlock()
	if pool == nil {
		job()
		return
	}
	pool.Run(job)
}

func (p *Primary) proposalContains(id types.TransmissionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentProposal == nil {
		return false
	}
	for _, tx := range p.currentProposal.transmissions {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// SetConnected replaces the set of addresses this node currently has an
// active connection to, used by the quorum-connectivity check before a
// proposal.
func (p *Primary) SetConnected(addresses []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		p.connected[a] = struct{}{}
	}
}

func (p *Primary) numUnconfirmed() int { return p.workers.NumUnconfirmed() }

// NumUnconfirmedTransmissions sums across workers.
func (p *Primary) NumUnconfirmedTransmissions() int { return p.numUnconfirmed() }

// NumUnconfirmedSolutions sums solution-kind transmissions across workers.
func (p *Primary) NumUnconfirmedSolutions() int {
	return p.workers.NumUnconfirmedKind(types.KindSolution)
}

// NumUnconfirmedTransactions sums transaction-kind transmissions across workers.
func (p *Primary) NumUnconfirmedTransactions() int {
	return p.workers.NumUnconfirmedKind(types.KindTransaction)
}

// Run loads the persisted proposal cache from cachePath, wires tracker
// (may be nil) for PrimaryPing handling, and spawns the long-running
// gateway handlers: BatchCertified ingestion with recursive dependency
// resolution, CertificateRequest/Response, unconfirmed-transmission
// pushes, and periodic PrimaryPing emission. A nil broker means this
// node runs without a gateway: the cache still loads, but no handler
// loop is spawned. Call ShutDown to stop the loop and persist state
// back out.
func (p *Primary) Run(cachePath string, tracker *blocksync.Tracker) error {
	if err := p.LoadCache(cachePath); err != nil {
		return err
	}

	p.mu.Lock()
	p.cachePath = cachePath
	p.tracker = tracker
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	if p.broker == nil {
		return nil
	}

	certified := make(chan any, 64)
	certReq := make(chan any, 64)
	certResp := make(chan any, 64)
	ping := make(chan any, 64)
	push := make(chan any, config.WorkerChannelCapacity)

	certifiedID := p.broker.Subscribe(gateway.TopicBatchCertified, certified)
	certReqID := p.broker.Subscribe(gateway.TopicCertificateRequest, certReq)
	certRespID := p.broker.Subscribe(gateway.TopicCertificateResponse, certResp)
	pingID := p.broker.Subscribe(gateway.TopicPrimaryPing, ping)
	pushID := p.broker.Subscribe(gateway.TopicUnconfirmedPush, push)

	go func() {
		ticker := time.NewTicker(config.PrimaryPingInterval)
		defer ticker.Stop()
		defer func() {
			p.broker.Unsubscribe(gateway.TopicBatchCertified, certifiedID)
			p.broker.Unsubscribe(gateway.TopicCertificateRequest, certReqID)
			p.broker.Unsubscribe(gateway.TopicCertificateResponse, certRespID)
			p.broker.Unsubscribe(gateway.TopicPrimaryPing, pingID)
			p.broker.Unsubscribe(gateway.TopicUnconfirmedPush, pushID)
		}()
		for {
			select {
			case <-done:
				return
			case ev := <-push:
				up, ok := ev.(gateway.UnconfirmedPush)
				if !ok {
					continue
				}
				p.HandleUnconfirmedPush(up)
			case ev := <-certified:
				bc, ok := ev.(gateway.BatchCertified)
				if !ok {
					continue
				}
				if err := p.HandleBatchCertified(bc.Certificate); err != nil {
					log.WithError(err).Debug("failed to sync flooded certificate")
				}
			case ev := <-certReq:
				req, ok := ev.(gateway.CertificateRequest)
				if !ok {
					continue
				}
				p.HandleCertificateRequest(req)
			case ev := <-certResp:
				resp, ok := ev.(gateway.CertificateResponse)
				if !ok {
					continue
				}
				if err := p.HandleCertificateResponse(resp); err != nil {
					log.WithError(err).Debug("failed to sync certificate response")
				}
			case ev := <-ping:
				pg, ok := ev.(gateway.PrimaryPing)
				if !ok {
					continue
				}
				if err := p.HandlePrimaryPing(pg); err != nil {
					log.WithError(err).Debug("failed to process primary ping")
				}
			case <-ticker.C:
				p.emitPing()
			}
		}
	}()
	return nil
}

// HandleUnconfirmedPush routes an externally pushed transmission to its
// owning worker shard and signals the admission outcome on the push's
// Result channel, if one was supplied.
func (p *Primary) HandleUnconfirmedPush(push gateway.UnconfirmedPush) {
	err := p.workers.ProcessUnconfirmed(push.Transmission.ID, push.Transmission.Payload)
	if push.Result != nil {
		select {
		case push.Result <- err:
		default:
		}
	}
}

// emitPing publishes this node's current block locators and latest
// self-certificate on a PrimaryPing tick. A no-op without a broker.
func (p *Primary) emitPing() {
	if p.broker == nil {
		return
	}
	p.mu.Lock()
	tracker := p.tracker
	p.mu.Unlock()

	pg := gateway.PrimaryPing{Version: pingProtocolVersion, Peer: p.account.Address()}
	if tracker != nil {
		locators := tracker.GetBlockLocators()
		pg.Recents = locators.Recents
		pg.Checkpoints = locators.Checkpoints
	}
	if certs := p.storage.GetCertificatesForRound(p.storage.CurrentRound()); len(certs) > 0 {
		pg.LatestSelfCertificate = certs[0].ID()
	}
	p.broker.Publish(gateway.TopicPrimaryPing, pg)
}

// HandlePrimaryPing folds an inbound peer ping's locators into the
// wired block-sync tracker. A no-op if Run was never given a tracker.
func (p *Primary) HandlePrimaryPing(pg gateway.PrimaryPing) error {
	p.mu.Lock()
	tracker := p.tracker
	p.mu.Unlock()
	if tracker == nil {
		return nil
	}
	locators := blocksync.Locators{Recents: pg.Recents, Checkpoints: pg.Checkpoints}
	return tracker.UpdatePeerLocators(pg.Peer, locators)
}

// HandleCertificateRequest answers a peer's point-to-point certificate
// fetch from local storage, replying nil if the certificate is not
// resident.
func (p *Primary) HandleCertificateRequest(req gateway.CertificateRequest) {
	if req.Reply == nil {
		return
	}
	cert, _ := p.storage.GetCertificate(req.ID)
	select {
	case req.Reply <- cert:
	default:
	}
}

// HandleCertificateResponse validates and inserts resp's certificate
// exactly as any other inbound certificate.
func (p *Primary) HandleCertificateResponse(resp gateway.CertificateResponse) error {
	if resp.Certificate == nil {
		return ErrNoSuchCertificate
	}
	return p.HandleBatchCertified(resp.Certificate)
}

// HandleBatchCertified processes a flooded certificate: it is inserted
// into storage after recursively fetching any missing previous
// certificate. Missing transmissions are not fetched: they are marked
// pending and the call fails with ErrMissingTransmissionDependency.
func (p *Primary) HandleBatchCertified(cert *types.BatchCertificate) error {
	if p.isShuttingDown() {
		return ErrShuttingDown
	}
	if cert == nil {
		return ErrNoSuchCertificate
	}
	return p.syncWithCertificateFromPeer(cert, 0)
}

// syncWithCertificateFromPeer resolves an inbound certificate's missing
// dependencies: any previous certificate not yet resident is fetched
// from peers and resolved in turn before cert itself is inserted.
// depth bounds the recursion; pendingCertificates tracks in-flight
// work and survives a restart via the proposal cache.
func (p *Primary) syncWithCertificateFromPeer(cert *types.BatchCertificate, depth int) error {
	if p.storage.ContainsCertificate(cert.ID()) {
		return nil
	}
	if depth > config.MaxCertificateFetchDepth {
		return ErrFetchDepthExceeded
	}

	p.mu.Lock()
	p.pendingCertificates[cert.ID()] = cert
	p.mu.Unlock()

	for _, prevID := range cert.Header.PreviousCertificateIDs {
		if p.storage.ContainsCertificate(prevID) {
			continue
		}
		prevCert, err := p.fetchCertificate(prevID)
		if err != nil {
			return err
		}
		if err := p.syncWithCertificateFromPeer(prevCert, depth+1); err != nil {
			return err
		}
	}

	transmissions, err := p.resolveTransmissions(cert)
	if err != nil {
		return err
	}

	if err := p.storage.InsertCertificate(cert, transmissions); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.pendingCertificates, cert.ID())
	p.mu.Unlock()

	p.tryIncrementRound(cert.Header.Round + 1)
	return nil
}

// resolveTransmissions gathers every transmission cert's header
// references, from storage if already resident or from the owning
// worker shard otherwise. A transmission neither place holds is marked
// pending on its shard (GetOrFetch) and the whole resolution fails with
// ErrMissingTransmissionDependency, leaving cert in pendingCertificates
// for a later retry once the transmission arrives.
func (p *Primary) resolveTransmissions(cert *types.BatchCertificate) (map[types.TransmissionID]types.Transmission, error) {
	out := make(map[types.TransmissionID]types.Transmission, len(cert.Header.TransmissionIDs))
	for _, txID := range cert.Header.TransmissionIDs {
		if tx, ok := p.storage.GetTransmission(txID); ok {
			out[txID] = tx
			continue
		}
		tx, err := p.workers.For(txID).GetOrFetch(txID)
		if err != nil {
			return nil, ErrMissingTransmissionDependency
		}
		out[txID] = tx
	}
	return out, nil
}

// fetchCertificate dispatches a CertificateRequest over the broker and
// blocks for at most config.CertificateFetchTimeout for a reply.
func (p *Primary) fetchCertificate(id types.CertificateID) (*types.BatchCertificate, error) {
	if p.broker == nil {
		return nil, ErrNoGateway
	}
	reply := make(chan *types.BatchCertificate, 1)
	p.broker.Publish(gateway.TopicCertificateRequest, gateway.CertificateRequest{ID: id, Reply: reply})

	select {
	case cert := <-reply:
		if cert == nil {
			return nil, ErrNoSuchCertificate
		}
		return cert, nil
	case <-time.After(config.CertificateFetchTimeout):
		return nil, ErrCertificateFetchTimeout
	}
}

// ShutDown aborts the handler loop spawned by Run (if any), persists
// the proposal cache to the path Run was given, and marks the node
// shutting down. Safe to call without a prior Run: it then only sets
// the shutdown flag, since there is no handler loop or cache path to
// act on.
func (p *Primary) ShutDown() error {
	atomic.StoreInt32(&p.shuttingDown, 1)

	p.mu.Lock()
	done := p.done
	p.done = nil
	cachePath := p.cachePath
	p.mu.Unlock()

	if done != nil {
		close(done)
	}
	if cachePath == "" {
		return nil
	}
	return p.SaveCache(cachePath)
}

func (p *Primary) isShuttingDown() bool {
	return atomic.LoadInt32(&p.shuttingDown) == 1
}

// checkProposalTimestamp enforces the minimum inter-proposal delay: the
// new proposal's timestamp minus the previous round's own certificate
// timestamp (or the latest proposal timestamp if there is none) must
// be at least MinBatchDelay.
func (p *Primary) checkProposalTimestamp(round uint64, now time.Time) bool {
	var reference time.Time
	if round > 1 {
		for _, cert := range p.storage.GetCertificatesForRound(round - 1) {
			if cert.Header.Author == p.account.Address() {
				reference = cert.Header.Timestamp
				break
			}
		}
	}
	if reference.IsZero() {
		p.mu.Lock()
		reference = p.lastProposalTimestamp
		p.mu.Unlock()
	}
	if reference.IsZero() {
		return true
	}
	return now.Sub(reference) >= config.MinBatchDelay
}

// ProposeBatch attempts one batch proposal for the current storage
// round: it checks round and timing preconditions, verifies quorum
// connectivity and previous-round coverage, drains and filters worker
// transmissions, signs the header, and broadcasts it for signatures.
// It returns ErrProposalInProgress rather than blocking if another
// attempt already holds the propose lock; contention is an expected
// skip, not an error to retry synchronously.
func (p *Primary) ProposeBatch() error {
	if p.isShuttingDown() {
		return ErrShuttingDown
	}
	if !p.proposing.TryLock() {
		return ErrProposalInProgress
	}
	defer p.proposing.Unlock()

	round := p.storage.CurrentRound()
	if round == 0 {
		return ErrRoundNotAdvanced
	}

	p.mu.Lock()
	lastProposed := p.lastProposedRound
	p.mu.Unlock()
	if round < lastProposed {
		return ErrStaleRound
	}

	now := time.Now()
	if !p.checkProposalTimestamp(round, now) {
		return ErrTooSoon
	}

	self := p.account.Address()
	for _, cert := range p.storage.GetCertificatesForRound(round) {
		if cert.Header.Author == self {
			p.tryIncrementRound(round + 1)
			return ErrAlreadyCertifiedThisRound
		}
	}

	committeeLookback, err := p.ledger.GetCommitteeLookbackForRound(round)
	if err != nil {
		return err
	}

	connected := make(map[string]struct{})
	p.mu.Lock()
	for a := range p.connected {
		connected[a] = struct{}{}
	}
	p.mu.Unlock()
	connected[self] = struct{}{}
	if !committeeLookback.ReachesQuorum(connected) {
		return ErrNoQuorumConnectivity
	}

	previousCertificates := p.storage.GetCertificatesForRound(round - 1)
	if round > 1 {
		previousLookback, err := p.ledger.GetCommitteeLookbackForRound(round - 1)
		if err != nil {
			return err
		}
		authors := make(map[string]struct{}, len(previousCertificates))
		for _, cert := range previousCertificates {
			authors[cert.Header.Author] = struct{}{}
		}
		if !previousLookback.ReachesQuorum(authors) {
			return ErrPreviousRoundNotQuorate
		}
	}

	transmissions, drainedButUnused := p.selectTransmissions()
	if len(transmissions) == 0 {
		p.reinsertAll(drainedButUnused)
		return ErrEmptyBatch
	}
	p.reinsertAll(drainedButUnused)

	ids := make([]types.TransmissionID, len(transmissions))
	for i, tx := range transmissions {
		ids[i] = tx.ID
	}
	prevIDs := make([]types.CertificateID, len(previousCertificates))
	for i, cert := range previousCertificates {
		prevIDs[i] = cert.ID()
	}

	header := types.BatchHeader{
		Author:                 self,
		Round:                  round,
		Timestamp:              now,
		CommitteeID:            fmt.Sprintf("committee-%d", committeeLookback.Round),
		TransmissionIDs:        ids,
		PreviousCertificateIDs: prevIDs,
	}
	batchID := header.BatchID()
	p.runBlocking(func() { header.Signature = p.account.Sign(batchID[:]) })

	prop := newProposal(header, transmissions, committeeLookback)

	p.mu.Lock()
	p.currentProposal = prop
	p.lastProposalTimestamp = now
	p.mu.Unlock()

	if p.broker != nil {
		p.broker.Publish(gateway.TopicBatchPropose, gateway.BatchPropose{Header: header})
	}
	log.WithFields(logger.Fields{"round": round, "transmissions": len(transmissions)}).Debug("proposed batch")

	// A committee whose quorum threshold the author's own stake already
	// clears (the single-validator case) never needs a peer signature
	// to arrive; certify immediately rather than waiting forever.
	if prop.reachesQuorum() {
		return p.certify(prop)
	}
	return nil
}

// selectTransmissions drains each shard for its share of the batch
// budget and filters. It returns the transmissions selected for the
// batch and, separately, every drained transmission that was not
// selected (to be reinserted into its originating shard).
func (p *Primary) selectTransmissions() (selected []types.Transmission, unused []types.Transmission) {
	k := p.workers.Size()
	nPerWorker := int(config.MaxTransmissionsPerBatch) / k
	if nPerWorker < 1 {
		nPerWorker = 1
	}

	var fresh, storageDup []types.Transmission
	for i := 0; i < k; i++ {
		for _, tx := range p.workers.Worker(i).Drain(nPerWorker) {
			if tx.ID.Kind == types.KindRatification {
				unused = append(unused, tx)
				continue
			}
			if p.ledger.ContainsTransmission(tx.ID) {
				unused = append(unused, tx)
				continue
			}
			if !tx.VerifyChecksum() {
				unused = append(unused, tx)
				continue
			}
			var err error
			switch tx.ID.Kind {
			case types.KindSolution:
				err = p.ledger.CheckSolutionBasic(tx.Payload)
			case types.KindTransaction:
				err = p.ledger.CheckTransactionBasic(tx.Payload)
			}
			if err != nil {
				unused = append(unused, tx)
				continue
			}

			if p.storage.ContainsTransmission(tx.ID) {
				storageDup = append(storageDup, tx)
				continue
			}
			fresh = append(fresh, tx)
		}
	}

	if len(fresh) > 0 {
		return fresh, append(unused, storageDup...)
	}
	if len(storageDup) > 0 {
		// Keep exactly one so the batch is never empty purely because
		// every candidate happened to already be resident in storage.
		return storageDup[:1], append(unused, storageDup[1:]...)
	}
	return nil, unused
}

func (p *Primary) reinsertAll(transmissions []types.Transmission) {
	for _, tx := range transmissions {
		p.workers.For(tx.ID).Reinsert(tx)
	}
}

// HandleBatchSignature processes an inbound signature for the node's
// own in-flight proposal. On reaching quorum it forms the certificate,
// inserts it into storage, broadcasts BatchCertified, forwards to the
// BFT layer, and attempts to advance the round.
func (p *Primary) HandleBatchSignature(batchID types.BatchID, signer string, signature []byte) error {
	if p.isShuttingDown() {
		return ErrShuttingDown
	}
	p.mu.Lock()
	prop := p.currentProposal
	p.mu.Unlock()
	if prop == nil || prop.batchID() != batchID {
		return ErrNoSuchProposal
	}

	if !prop.committee.IsMember(signer) {
		return ErrUnknownSigner
	}
	if !p.keys.Verify(signer, batchID[:], signature) {
		return ErrBadSignature
	}

	if !prop.addSignature(signer, signature) {
		return nil
	}
	return p.certify(prop)
}

// certify assembles prop's certificate, inserts it into storage,
// broadcasts BatchCertified, forwards to the BFT layer, and attempts
// to advance the round. Called once a proposal's signer set first
// reaches quorum, whether that happens because a peer signature
// arrived or because the author's own stake already clears the
// threshold (the single-validator-committee case, where no peer
// signature ever needs to arrive).
func (p *Primary) certify(prop *proposal) error {
	cert := prop.certificate()
	transmissions := make(map[types.TransmissionID]types.Transmission, len(prop.transmissions))
	for _, tx := range prop.transmissions {
		transmissions[tx.ID] = tx
	}

	var insertErr error
	p.runBlocking(func() { insertErr = p.storage.InsertCertificate(cert, transmissions) })
	if insertErr != nil {
		p.reinsertAll(prop.transmissions)
		return insertErr
	}

	p.mu.Lock()
	if p.currentProposal == prop {
		p.currentProposal = nil
	}
	p.lastProposedRound = cert.Header.Round
	p.mu.Unlock()

	if p.broker != nil {
		p.broker.Publish(gateway.TopicBatchCertified, gateway.BatchCertified{Certificate: cert})
	}
	if p.bftSender != nil {
		select {
		case p.bftSender <- cert:
		default:
		}
	}

	p.tryIncrementRound(cert.Header.Round + 1)
	return nil
}

func (p *Primary) tryIncrementRound(next uint64) {
	p.storage.IncrementToNextRound(next - 1)
}

// HandleBatchPropose replies with a signature over header's batch id
// if this node has not already signed a batch at (author, round). It
// does not itself validate header beyond that bookkeeping; signature
// validity and committee membership are checked by the proposer's
// HandleBatchSignature when the reply is processed on the other end.
func (p *Primary) HandleBatchPropose(header types.BatchHeader) (signature []byte, alreadySigned bool) {
	p.mu.Lock()
	rounds, ok := p.signedProposals[header.Author]
	if !ok {
		rounds = make(map[uint64]struct{})
		p.signedProposals[header.Author] = rounds
	}
	if _, signed := rounds[header.Round]; signed {
		p.mu.Unlock()
		return nil, true
	}
	rounds[header.Round] = struct{}{}
	p.mu.Unlock()

	batchID := header.BatchID()
	var sig []byte
	p.runBlocking(func() { sig = p.account.Sign(batchID[:]) })
	return sig, false
}
