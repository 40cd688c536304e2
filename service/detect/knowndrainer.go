package detect

import (
	"context"
	"fmt"
	"sync"

	"github.com/drainwatch/drainwatch/service/registry"
	"github.com/drainwatch/drainwatch/service/solana"
)

// RegistryReader is the read side of the on-chain drainer registry.
type RegistryReader interface {
	Get(ctx context.Context, address string) (*registry.DrainerReport, error)
}

// DomainLookup resolves phishing domains associated with a drainer address.
// Implementations may return (nil, nil) for unknown addresses.
type DomainLookup interface {
	Domains(ctx context.Context, address string) ([]string, error)
}

// defaultLookupWorkers bounds concurrent registry lookups per transaction so
// a transaction touching many accounts doesn't overwhelm the RPC endpoint.
const defaultLookupWorkers = 4

// obviouslySafe lists addresses never worth a registry lookup.
var obviouslySafe = map[string]struct{}{
	solana.SystemProgramID.String():    {},
	solana.TokenProgramID.String():     {},
	solana.Token2022ProgramID.String(): {},
}

// KnownDrainerDetector checks every account referenced in a transaction
// (except the fee payer, assumed to be the victim) against the on-chain
// drainer registry. A match is treated as ground truth: community
// corroboration on chain, Critical at full confidence.
type KnownDrainerDetector struct {
	Registry RegistryReader
	Domains  DomainLookup // optional
	Workers  int          // 0 means defaultLookupWorkers
}

func (KnownDrainerDetector) Name() string { return "known_drainer" }

func (d KnownDrainerDetector) Detect(ctx context.Context, tx *solana.TransactionRecord) (*Result, error) {
	candidates := d.candidates(tx)
	if len(candidates) == 0 {
		return nil, nil
	}

	matches, err := d.lookup(ctx, candidates)
	if err != nil {
		// Registry unavailability must not silently downgrade a verdict.
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	result := &Result{
		Type:       TypeKnownDrainer,
		Severity:   SeverityCritical,
		Confidence: 100,
		Recommendations: []string{
			"This transaction involves an address reported as a drainer on the community registry.",
			"Move remaining assets to a fresh wallet and revoke all token approvals.",
			"Do not interact with links or sites associated with this address again.",
		},
		Timestamp: resultTime(tx),
		Signature: tx.Signature,
	}
	if tx.FeePayer != "" {
		result.AffectedAccounts = []string{tx.FeePayer}
	}

	for _, addr := range candidates {
		if _, ok := matches[addr]; !ok {
			continue
		}
		result.SuspiciousRecipients = appendUnique(result.SuspiciousRecipients, addr)
		if d.Domains != nil {
			domains, err := d.Domains.Domains(ctx, addr)
			if err == nil {
				for _, domain := range domains {
					result.Domains = appendUnique(result.Domains, domain)
				}
			}
		}
	}

	return result, nil
}

// candidates returns the unique addresses worth a registry lookup: everything
// referenced by the transaction minus the fee payer and well-known programs.
func (d KnownDrainerDetector) candidates(tx *solana.TransactionRecord) []string {
	var out []string
	for _, addr := range tx.AccountKeys {
		if addr == tx.FeePayer {
			continue
		}
		if _, safe := obviouslySafe[addr]; safe {
			continue
		}
		out = appendUnique(out, addr)
	}
	return out
}

// lookup queries the registry for each candidate through a bounded worker
// pool and returns the set of addresses with an existing report.
func (d KnownDrainerDetector) lookup(ctx context.Context, candidates []string) (map[string]*registry.DrainerReport, error) {
	workers := d.Workers
	if workers <= 0 {
		workers = defaultLookupWorkers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		matches = make(map[string]*registry.DrainerReport)
		errs    []error
	)

	jobs := make(chan string)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				report, err := d.Registry.Get(ctx, addr)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else if report != nil {
					matches[addr] = report
				}
				mu.Unlock()
			}
		}()
	}

	for _, addr := range candidates {
		jobs <- addr
	}
	close(jobs)
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	return matches, nil
}
