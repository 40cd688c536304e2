package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/drainwatch/drainwatch/service/analyze"
	"github.com/drainwatch/drainwatch/service/config"
	"github.com/drainwatch/drainwatch/service/nats"
	"github.com/drainwatch/drainwatch/service/registry"
	chain "github.com/drainwatch/drainwatch/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB - plenty for report submission
	maxAddressLength   = 100     // Solana addresses are 44 chars, give buffer
	maxTxLimit         = 200
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// RegistryClient is the on-chain registry dependency of the report handlers.
// *registry.Client satisfies this interface.
type RegistryClient interface {
	Get(ctx context.Context, address string) (*registry.DrainerReport, error)
	Report(ctx context.Context, address string, amountLamports *uint64) (solanago.Signature, error)
}

// handleAnalyze returns a handler that runs the analysis pipeline for a wallet.
// GET /api/v1/analyze?address={address}&limit={n}&experimental={bool}
func handleAnalyze(resolver analyze.Resolver, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		opts := analyze.Options{Limit: cfg.DefaultTxLimit}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > maxTxLimit {
				writeError(w, fmt.Sprintf("limit must be an integer between 1 and %d", maxTxLimit), http.StatusBadRequest)
				return
			}
			opts.Limit = limit
		}
		if raw := r.URL.Query().Get("experimental"); raw != "" {
			experimental, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, "experimental must be a boolean", http.StatusBadRequest)
				return
			}
			opts.IncludeExperimental = experimental
		}

		report, err := resolver.Resolve(r.Context(), address, opts)
		if err != nil {
			switch {
			case errors.Is(err, analyze.ErrInvalidAddress):
				writeError(w, "invalid wallet address", http.StatusBadRequest)
			case errors.Is(err, chain.ErrAccessDenied):
				logger.Error("RPC access denied during analysis", "address", address, "error", err)
				writeError(w, "upstream RPC access denied", http.StatusInternalServerError)
			case errors.Is(err, chain.ErrExhaustedRetries):
				logger.Error("RPC retries exhausted during analysis", "address", address, "error", err)
				writeError(w, "upstream RPC rate limited", http.StatusInternalServerError)
			default:
				logger.Error("analysis failed", "address", address, "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, report, http.StatusOK)
	})
}

// handleGetReport returns a handler that looks up a drainer report on-chain.
// GET /api/v1/report/{address}
//
// A wallet with no report is not an error: the response is a 200 with a null
// body so clients can distinguish "not reported" from lookup failure.
func handleGetReport(reg RegistryClient, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		report, err := reg.Get(r.Context(), address)
		if err != nil {
			if errors.Is(err, registry.ErrInvalidAddress) {
				writeError(w, "invalid drainer address", http.StatusBadRequest)
				return
			}
			logger.Error("registry lookup failed", "address", address, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, report, http.StatusOK)
	})
}

// submitReportRequest is the body of POST /api/v1/report.
type submitReportRequest struct {
	DrainerAddress string  `json:"drainer_address"`
	AmountStolen   *uint64 `json:"amount_stolen,omitempty"`
}

// submitReportResponse is the body of a successful report submission.
type submitReportResponse struct {
	Signature string `json:"signature"`
}

// handleSubmitReport returns a handler that submits a drainer report on-chain.
// POST /api/v1/report
func handleSubmitReport(reg RegistryClient, publisher nats.Publisher, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req submitReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := validateAddress(req.DrainerAddress); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		sig, err := reg.Report(r.Context(), req.DrainerAddress, req.AmountStolen)
		if err != nil {
			switch {
			case errors.Is(err, registry.ErrInvalidAddress):
				writeError(w, "invalid drainer address", http.StatusBadRequest)
			case errors.Is(err, registry.ErrCannotReportSelf):
				writeError(w, "cannot report your own wallet", http.StatusBadRequest)
			case errors.Is(err, registry.ErrCannotReportSystemAccount):
				writeError(w, "cannot report a system account", http.StatusBadRequest)
			case errors.Is(err, registry.ErrInsufficientFunds):
				writeError(w, "reporter balance cannot cover the anti-spam fee", http.StatusBadRequest)
			default:
				logger.Error("report submission failed", "address", req.DrainerAddress, "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		logger.Info("drainer report submitted",
			"address", req.DrainerAddress,
			"signature", sig.String(),
		)

		if publisher != nil {
			event := &nats.ReportEvent{
				DrainerAddress: req.DrainerAddress,
				Signature:      sig.String(),
				ReportedAt:     time.Now().UTC(),
			}
			event.AmountLamports = req.AmountStolen
			if err := publisher.PublishReport(r.Context(), event); err != nil {
				// The report already landed on-chain; event delivery is best-effort.
				logger.Warn("failed to publish report event", "address", req.DrainerAddress, "error", err)
			}
		}

		writeJSON(w, submitReportResponse{Signature: sig.String()}, http.StatusOK)
	})
}

// validateAddress checks that an address is plausibly a Solana public key.
// Full base58 decoding happens downstream; this gate rejects junk before any
// network call.
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address is required")
	}
	if len(address) > maxAddressLength {
		return fmt.Errorf("address too long")
	}
	if !validAddressRegex.MatchString(address) {
		return fmt.Errorf("address contains invalid characters")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
