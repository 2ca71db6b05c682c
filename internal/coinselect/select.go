// Package coinselect picks UTXOs for DLC-channel funding transactions via
// branch-and-bound, minimizing long-term fee waste. Grounded on the
// yield-sorted partitioning in sweep/txgenerator.go and the weight
// estimator in lnwallet/size.go, adapted from "sweep everything profitable"
// to "hit a single funding target with minimal waste."
package coinselect

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/dlc-coordinator/coordinator/internal/reservation"
)

// ErrCoinSelectionExhausted is returned when no combination of candidates
// reaches the target within the iteration budget.
var ErrCoinSelectionExhausted = errors.New("coin selection: no combination of inputs reaches target within budget")

// maxIterations bounds the branch-and-bound search.
const maxIterations = 100_000

// FundingBaseWeight is the weight (in weight units) of a DLC-channel
// funding transaction excluding inputs and the change output: version,
// locktime, segwit marker/flag, and the 2-of-2 multisig funding output.
const FundingBaseWeight = 212

// p2wpkhOutputSize is the size in bytes of a single P2WPKH output, used
// for the dust-threshold computation on a prospective change output.
const p2wpkhOutputSize = 31

// Candidate is a UTXO considered for selection.
type Candidate struct {
	OutPoint        wire.OutPoint
	Value           btcutil.Amount
	Weight          int64 // input weight in weight units, including witness
	IsWitnessProgram bool
}

// Target describes the required selection outcome.
type Target struct {
	// Value is the amount, in sats, the funding output must carry.
	Value btcutil.Amount
	// FeeRateSatPerVByte is the fee rate the resulting transaction must
	// clear.
	FeeRateSatPerVByte int64
	// MinFee is a floor added to the required fee; normally zero.
	MinFee btcutil.Amount
}

// Result is a successful selection.
type Result struct {
	Selected   []Candidate
	ChangeSats btcutil.Amount // zero if no change output is warranted
	Fee        btcutil.Amount
}

// Select runs branch-and-bound against target, choosing from candidates
// (already filtered against the reservation store by the caller, or via
// the Store param below). If store is non-nil and shouldLock is true, the
// selected outpoints are reserved before Select returns success; failure
// to reserve (a race lost to a concurrent caller) causes Select to retry
// once against the post-race candidate set minus the newly reserved
// outpoints, then give up with ErrCoinSelectionExhausted.
func Select(candidates []Candidate, target Target, store *reservation.Store, shouldLock bool) (*Result, error) {
	if store != nil {
		candidates = filterReserved(candidates, store)
	}

	result, err := branchAndBound(candidates, target)
	if err != nil {
		return nil, err
	}

	if store != nil && shouldLock {
		ops := make([]wire.OutPoint, len(result.Selected))
		for i, c := range result.Selected {
			ops[i] = c.OutPoint
		}
		if !store.Reserve(ops) {
			// Lost a race: filter out whatever just got reserved and
			// retry once against the shrunk candidate set.
			retryCandidates := filterReserved(candidates, store)
			result, err = branchAndBound(retryCandidates, target)
			if err != nil {
				return nil, err
			}
			ops = make([]wire.OutPoint, len(result.Selected))
			for i, c := range result.Selected {
				ops[i] = c.OutPoint
			}
			if !store.Reserve(ops) {
				return nil, ErrCoinSelectionExhausted
			}
		}
	}

	log.Debugf("selected %d inputs, fee=%v, change=%v", len(result.Selected), result.Fee, result.ChangeSats)

	return result, nil
}

func filterReserved(candidates []Candidate, store *reservation.Store) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !store.IsReserved(c.OutPoint) {
			out = append(out, c)
		}
	}
	return out
}

// branchAndBound implements the "lowest fee" waste-minimizing search: among
// all subsets that meet or exceed the target value plus required fee, it
// prefers the one with the least excess (waste), exploring via a depth-
// first include/exclude branch over candidates sorted by descending value
// (a standard ordering for fast convergence), bounded by maxIterations.
func branchAndBound(candidates []Candidate, target Target) (*Result, error) {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortByValueDesc(sorted)

	bestWaste := int64(-1)
	var best []Candidate

	current := make([]Candidate, 0, len(sorted))
	iterations := 0

	var search func(i int, sum btcutil.Amount, weight int64) bool
	search = func(i int, sum btcutil.Amount, weight int64) bool {
		iterations++
		if iterations > maxIterations {
			return false
		}

		fee := feeForWeight(FundingBaseWeight+weight, target.FeeRateSatPerVByte)
		if fee < target.MinFee {
			fee = target.MinFee
		}
		required := target.Value + fee

		if sum >= required {
			waste := int64(sum - required)
			if bestWaste == -1 || waste < bestWaste {
				bestWaste = waste
				best = append(best[:0], current...)
			}
			// An exact or near-exact match can't be improved on by
			// adding more inputs (sum only grows), so stop this branch.
			return true
		}

		if i >= len(sorted) {
			return true
		}

		// Include sorted[i].
		current = append(current, sorted[i])
		if !search(i+1, sum+sorted[i].Value, weight+sorted[i].Weight) {
			current = current[:len(current)-1]
			return false
		}
		current = current[:len(current)-1]

		// Exclude sorted[i].
		return search(i+1, sum, weight)
	}

	search(0, 0, 0)

	if best == nil {
		return nil, ErrCoinSelectionExhausted
	}

	var totalValue btcutil.Amount
	var totalWeight int64
	for _, c := range best {
		totalValue += c.Value
		totalWeight += c.Weight
	}

	fee := feeForWeight(FundingBaseWeight+totalWeight, target.FeeRateSatPerVByte)
	if fee < target.MinFee {
		fee = target.MinFee
	}

	excess := totalValue - target.Value - fee
	change := changeAmount(excess, target.FeeRateSatPerVByte)

	// Change consumes part of the excess as its own output value plus the
	// marginal fee of adding it; any remainder beyond that is pure waste
	// absorbed into the fee.
	actualFee := fee
	if change > 0 {
		actualFee = totalValue - target.Value - change
	}

	return &Result{
		Selected:   best,
		ChangeSats: change,
		Fee:        actualFee,
	}, nil
}

// changeAmount decides whether the excess sats warrant a change output: only
// when excess exceeds the larger of the dust threshold and the waste
// threshold (the marginal cost of adding the change output itself) at the
// target fee rate.
func changeAmount(excess btcutil.Amount, feeRateSatPerVByte int64) btcutil.Amount {
	if excess <= 0 {
		return 0
	}

	relayFeePerKB := btcutil.Amount(feeRateSatPerVByte * 1000)
	dustLimit := txrules.GetDustThreshold(p2wpkhOutputSize, relayFeePerKB)

	wasteThreshold := feeForWeight(p2wpkhOutputSize*4, feeRateSatPerVByte)

	threshold := dustLimit
	if wasteThreshold > threshold {
		threshold = wasteThreshold
	}

	if excess <= threshold {
		return 0
	}
	return excess - wasteThreshold
}

func feeForWeight(weight int64, feeRateSatPerVByte int64) btcutil.Amount {
	vbytes := (weight + 3) / 4
	return btcutil.Amount(vbytes * feeRateSatPerVByte)
}

func sortByValueDesc(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Value > c[j-1].Value; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
