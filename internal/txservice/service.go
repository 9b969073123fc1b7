package txservice

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/consensus"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/limiter"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/metrics"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/senderlock"
)

// Config holds the process-wide toggles from spec.md §6 that shape the
// submission pipeline's behaviour.
type Config struct {
	ReadOnly             bool
	NonceOrderingEnabled bool
	AsyncProcessing      bool
	JumboTxEnabled       bool
	ChunkSizeBytes       int
	SyncPollRetries      int
	SyncPollInterval     time.Duration
	Precheck             PrecheckConfig
}

// DefaultSyncPollRetries is the bounded retry count for sync-mode mirror
// node polling (spec.md §4.1 step 10).
const DefaultSyncPollRetries = 10

// MirrorReader is the narrow mirror-node surface the submission pipeline
// needs: an account lookup for the precheck and a contract-result lookup
// for hash reconciliation (spec.md §4.1 steps 3 and 10). *mirrornode.Client
// satisfies this interface.
type MirrorReader interface {
	AccountReader
	ContractResult(ctx context.Context, transactionID string) (mirrornode.ContractResult, error)
}

// Service implements the send_raw_transaction contract of spec.md §4.1.
type Service struct {
	logger    log.Logger
	cfg       Config
	mirror    MirrorReader
	pool      *Pool
	locks     *senderlock.Registry
	limiter   *limiter.Limiter
	supervisor *consensus.Supervisor
	uploader  *consensus.Uploader
	fees      *consensus.FeeAccountant
}

// NewService wires the submission pipeline's collaborators.
func NewService(
	logger log.Logger,
	cfg Config,
	mirror MirrorReader,
	pool *Pool,
	locks *senderlock.Registry,
	lim *limiter.Limiter,
	supervisor *consensus.Supervisor,
	uploader *consensus.Uploader,
	fees *consensus.FeeAccountant,
) *Service {
	if cfg.SyncPollRetries <= 0 {
		cfg.SyncPollRetries = DefaultSyncPollRetries
	}
	if cfg.SyncPollInterval <= 0 {
		cfg.SyncPollInterval = 500 * time.Millisecond
	}
	return &Service{
		logger:     logger.With(log.ModuleKey, "transactionService"),
		cfg:        cfg,
		mirror:     mirror,
		pool:       pool,
		locks:      locks,
		limiter:    lim,
		supervisor: supervisor,
		uploader:   uploader,
		fees:       fees,
	}
}

// SendRawTransaction implements spec.md §4.1's full contract:
// send_raw_transaction(raw_bytes, ctx) -> hash | error.
func (s *Service) SendRawTransaction(ctx context.Context, raw []byte, callerIP string) (hash common.Hash, err error) {
	start := time.Now()
	defer func() {
		metrics.SubmissionLatency.UpdateSince(start)
		if err != nil {
			metrics.TransactionsRejected.Inc(1)
			return
		}
		metrics.TransactionsSubmitted.Inc(1)
	}()

	// 1. Parse & typecheck.
	env, err := ParseEnvelope(raw)
	if err != nil {
		return common.Hash{}, err
	}

	// 2. Read-only gate, before any side effect.
	if s.cfg.ReadOnly {
		return common.Hash{}, errors.Wrap(rpcerr.ErrUnsupportedOperation, rpcerr.ReadOnlyMsg)
	}

	// 3. Precheck.
	if err := Precheck(ctx, s.mirror, s.cfg.Precheck, env); err != nil {
		return common.Hash{}, err
	}

	sender := env.Sender.Hex()

	// 4. Per-sender lock (when nonce-ordering is enabled).
	var sessionToken string
	if s.cfg.NonceOrderingEnabled {
		sessionToken, err = s.locks.Acquire(ctx, sender)
		if err != nil {
			return common.Hash{}, err
		}
	}
	released := false
	release := func() {
		if s.cfg.NonceOrderingEnabled && !released {
			s.locks.Release(sender, sessionToken)
			released = true
		}
	}
	// Any early return below must release the lock it is holding.
	defer release()

	// 5. Pool admit.
	if err := s.pool.Admit(env, sessionToken); err != nil {
		if errors.Is(err, ErrAlreadyKnown) {
			return common.Hash{}, errors.Wrap(rpcerr.ErrAlreadyKnown, "already known")
		}
		return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	// 6. Payload staging.
	var fileID string
	payload := env.Payload()
	if len(payload) > s.cfg.ChunkSizeBytes && !s.cfg.JumboTxEnabled {
		handle, err := s.uploader.CreateFile(ctx, payload, sender)
		if err != nil {
			s.pool.Remove(sender, env.Nonce())
			return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, err.Error())
		}
		fileID = handle.FileID
	}

	// 7. Budget gate.
	if s.limiter.ShouldLimit(ctx, limiter.Mode("eth_sendRawTransaction"), "relay", sender) {
		metrics.BudgetLimitHits.Inc(1)
		s.pool.Remove(sender, env.Nonce())
		return common.Hash{}, rpcerr.ErrHbarRateLimitExceeded
	}

	// 8. Submit.
	rawBytes, err := env.RawBytes()
	if err != nil {
		s.pool.Remove(sender, env.Nonce())
		return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	client, err := s.supervisor.GetClient(ctx)
	if err != nil {
		s.pool.Remove(sender, env.Nonce())
		return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	submitResp, submitErr := client.SubmitEthereumTransaction(ctx, rawBytes, fileID)
	s.pool.MarkSubmitted(sender, env.Nonce())

	// 9. Release sender lock immediately after consensus submission
	// returns — the nonce has been consumed on-chain (or definitively
	// failed), so subsequent submissions from the same sender may proceed.
	release()

	if submitErr == nil {
		s.fees.RecordSubmission(ctx, submitResp.TransactionID, sender)
	}

	// 10. Reconcile hash. In async mode, reconciliation (and the pool
	// removal that follows it) happens in the background; the hash is
	// returned immediately. In sync mode, reconciliation is synchronous and
	// the pool entry is removed once it completes either way (step 11).
	if s.cfg.AsyncProcessing {
		go s.reconcileAsync(context.Background(), env, submitResp, sender)
		return env.Hash, nil
	}

	hash, reconcileErr := s.reconcileSync(ctx, env, submitResp, submitErr)

	// 11. Pool remove, after reconciliation succeeds or fails.
	s.pool.Remove(sender, env.Nonce())

	return hash, reconcileErr
}

// reconcileSync implements spec.md §4.1 step 10's sync-mode branch.
func (s *Service) reconcileSync(ctx context.Context, env *Envelope, submitResp consensus.TransactionResponse, submitErr error) (common.Hash, error) {
	localHash := env.Hash

	if submitResp.TransactionID == "" && submitErr == nil {
		return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, "consensus submission returned an empty transaction id")
	}

	for attempt := 0; attempt < s.cfg.SyncPollRetries; attempt++ {
		cr, err := s.mirror.ContractResult(ctx, submitResp.TransactionID)
		if err == nil {
			return common.HexToHash(cr.Hash), nil
		}
		if !mirrornode.IsNotFound(err) {
			s.logger.Error("mirror node poll failed", "transactionId", submitResp.TransactionID, "error", err)
		}
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case <-time.After(s.cfg.SyncPollInterval):
		}
	}

	if submitErr != nil && isTransient(submitErr) {
		// The mirror node never saw the transaction either: nothing to
		// reconcile against, surface the original transient error.
		return common.Hash{}, errors.Wrap(rpcerr.ErrInternal, submitErr.Error())
	}

	// Mirror node 404'd throughout: fall back to the locally computed hash.
	return localHash, nil
}

// reconcileAsync reconciles the locally-computed hash against the mirror
// node in the background (async mode). Per spec.md §9's resolution of the
// hash-mismatch Open Question, any discrepancy is logged as fatal rather
// than silently accepted.
func (s *Service) reconcileAsync(ctx context.Context, env *Envelope, submitResp consensus.TransactionResponse, sender string) {
	defer s.pool.Remove(sender, env.Nonce())

	for attempt := 0; attempt < s.cfg.SyncPollRetries; attempt++ {
		cr, err := s.mirror.ContractResult(ctx, submitResp.TransactionID)
		if err == nil {
			mirrorHash := common.HexToHash(cr.Hash)
			if mirrorHash != env.Hash {
				s.logger.Error("FATAL: async-mode hash mismatch between local computation and mirror node",
					"localHash", env.Hash.Hex(), "mirrorHash", mirrorHash.Hex(), "transactionId", submitResp.TransactionID)
			}
			return
		}
		if !mirrornode.IsNotFound(err) {
			s.logger.Error("async reconciliation poll failed", "transactionId", submitResp.TransactionID, "error", err)
		}
		time.Sleep(s.cfg.SyncPollInterval)
	}
}

func isTransient(err error) bool {
	msg := err.Error()
	return msg == "timeout exceeded" || msg == "Connection dropped"
}
