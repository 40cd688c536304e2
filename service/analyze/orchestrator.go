package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/drainwatch/drainwatch/service/detect"
	"github.com/drainwatch/drainwatch/service/metrics"
	chain "github.com/drainwatch/drainwatch/service/solana"
)

// Orchestrator runs an ordered list of detectors over each fetched
// transaction and collects their findings. Detectors are registered in a
// list so adding or removing one never touches this code.
type Orchestrator struct {
	detectors []detect.Detector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given detector list.
func NewOrchestrator(detectors []detect.Detector, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		detectors: detectors,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes every detector against every transaction. A detector error is
// fatal for the whole run: the only failing detector is the registry-backed
// one, and registry unavailability must not silently downgrade a verdict.
func (o *Orchestrator) Run(ctx context.Context, txs []*chain.TransactionRecord) ([]detect.Result, error) {
	var results []detect.Result

	for _, tx := range txs {
		for _, detector := range o.detectors {
			result, err := detector.Detect(ctx, tx)
			if err != nil {
				return nil, fmt.Errorf("detector %s: %w", detector.Name(), err)
			}
			if result == nil {
				continue
			}

			o.logger.DebugContext(ctx, "detection",
				"detector", detector.Name(),
				"type", result.Type,
				"severity", result.Severity,
				"signature", result.Signature,
			)
			if o.metrics != nil {
				o.metrics.RecordDetection(string(result.Type), string(result.Severity))
			}
			results = append(results, *result)
		}
	}

	return results, nil
}
