package consensus

import (
	"context"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/metrics"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

// ExpenseTracker is the narrow slice of the HBAR limiter the fee accountant
// calls into (spec.md §4.2's "call hbar_limiter.add_expense").
type ExpenseTracker interface {
	AddExpense(ctx context.Context, amountTinybar int64, sender string, txConstructor string)
}

// RecordChargeFormula computes the record-charge-amount from the current
// exchange rate (spec.md §4.2). Concrete formulas vary by deployment; the
// default here charges a fixed number of cents' worth of tinybar per
// consensus transaction, converted through the exchange rate the same way
// network/exchangerate's current_rate is structured.
type RecordChargeFormula func(rate mirrornode.ExchangeRate) int64

// DefaultRecordChargeFormula charges one hundredth of a cent's worth of
// tinybar, matching Hedera's long-standing $0.0001 record-query charge.
func DefaultRecordChargeFormula(rate mirrornode.ExchangeRate) int64 {
	if rate.CentEquivalent == 0 {
		return 0
	}
	return rate.HbarEquivalent * 100_000_000 / rate.CentEquivalent / 100
}

// FeeMirrorReader is the narrow mirror-node surface the fee accountant
// needs: a contract-result lookup for gas used and the current exchange
// rate for the record-charge formula (spec.md §4.2). *mirrornode.Client
// satisfies this interface.
type FeeMirrorReader interface {
	ContractResult(ctx context.Context, transactionID string) (mirrornode.ContractResult, error)
	NetworkExchangeRate(ctx context.Context) (mirrornode.ExchangeRate, error)
}

// FeeAccountant fetches a transaction's record after every committed
// consensus operation and credits the limiter with gas fee + record charge
// (spec.md §4.2's fee-accounting contract).
type FeeAccountant struct {
	logger        log.Logger
	mirror        FeeMirrorReader
	consensus     *Supervisor
	expenses      ExpenseTracker
	chargeFormula RecordChargeFormula
	preferMirror  bool
}

// NewFeeAccountant constructs a FeeAccountant. When preferMirror is true,
// gas used is first read from the mirror node's contract result; the
// transaction fee, which that result does not carry, is always read from
// the consensus node's transaction record.
func NewFeeAccountant(logger log.Logger, mirror FeeMirrorReader, sup *Supervisor, expenses ExpenseTracker, formula RecordChargeFormula, preferMirror bool) *FeeAccountant {
	if formula == nil {
		formula = DefaultRecordChargeFormula
	}
	return &FeeAccountant{
		logger:        logger.With(log.ModuleKey, "feeAccountant"),
		mirror:        mirror,
		consensus:     sup,
		expenses:      expenses,
		chargeFormula: formula,
		preferMirror:  preferMirror,
	}
}

// RecordSubmission fetches {gas_used, transaction_fee, record_charge_amount}
// for transactionID and charges the limiter once per consensus transaction
// in addition to the transaction fee (spec.md §4.2).
func (f *FeeAccountant) RecordSubmission(ctx context.Context, transactionID, sender string) {
	var feeTiny, gasUsed int64

	if f.preferMirror {
		cr, err := f.mirror.ContractResult(ctx, transactionID)
		if err == nil {
			gasUsed = cr.GasUsed
		}
	}

	if feeTiny == 0 {
		client, err := f.consensus.GetClient(ctx)
		if err != nil {
			f.logger.Error("failed to acquire consensus client for fee accounting", "transactionId", transactionID, "error", err)
			return
		}
		record, err := client.GetTransactionRecord(ctx, transactionID)
		if err != nil {
			f.logger.Error("failed to fetch transaction record", "transactionId", transactionID, "error", err)
			return
		}
		if gasUsed == 0 {
			gasUsed = record.GasUsed
		}
		feeTiny = record.TransactionFeeTiny
	}

	rate, err := f.mirror.NetworkExchangeRate(ctx)
	if err != nil {
		f.logger.Error("failed to fetch exchange rate for record charge", "error", err)
	}
	recordCharge := f.chargeFormula(rate)

	f.expenses.AddExpense(ctx, feeTiny+recordCharge, sender, transactionID)
	metrics.HbarExpensesRecorded.Inc(1)
}
