package hrest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"settlement-service/internal/domain"
	"settlement-service/internal/fx"
	"settlement-service/internal/usecase"
	"settlement-service/pkg/response"
	"settlement-service/pkg/xerrors"
)

type SettlementRestHandler struct {
	settlementUC *usecase.SettlementUsecase
	lifecycleUC  *usecase.LifecycleUsecase
	reportUC     *usecase.ReportUsecase
	converter    *fx.Converter
	quickCfg     fx.QuickAmountConfig
	locale       fx.LocaleProvider
	logger       *zap.Logger
}

func NewSettlementRestHandler(
	settlementUC *usecase.SettlementUsecase,
	lifecycleUC *usecase.LifecycleUsecase,
	reportUC *usecase.ReportUsecase,
	converter *fx.Converter,
	quickCfg fx.QuickAmountConfig,
	locale fx.LocaleProvider,
	logger *zap.Logger,
) *SettlementRestHandler {
	return &SettlementRestHandler{
		settlementUC: settlementUC,
		lifecycleUC:  lifecycleUC,
		reportUC:     reportUC,
		converter:    converter,
		quickCfg:     quickCfg,
		locale:       locale,
		logger:       logger,
	}
}

// CaptureOrder captures an approved gateway order and records the settlement.
// Replays of an already settled order return 200 with the existing rows.
func (h *SettlementRestHandler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	var req usecase.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.settlementUC.CaptureAndSettle(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyRecorded {
		status = http.StatusOK
	}
	response.JSON(w, status, result)
}

// GetCurrencies returns the supported currency catalog plus quick-donation
// suggestions for the caller's currency. The currency comes from the query
// string, falling back to locale detection.
func (h *SettlementRestHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	currency := fx.DetectCurrency(h.locale)
	if q := strings.ToUpper(r.URL.Query().Get("currency")); q != "" {
		c := domain.Currency(q)
		if !c.IsSupported() {
			response.Error(w, http.StatusBadRequest, xerrors.ErrUnsupportedCurrency.Error())
			return
		}
		currency = c
	}

	quick, err := h.converter.QuickAmounts(currency, h.quickCfg)
	if err != nil {
		h.writeError(w, err)
		return
	}

	catalog := make([]domain.CurrencyConfig, 0, len(domain.Currencies))
	for _, code := range domain.SupportedCurrencies() {
		catalog = append(catalog, domain.Currencies[code])
	}

	type quickAmount struct {
		Amount    decimal.Decimal `json:"amount"`
		Formatted string          `json:"formatted"`
	}
	suggestions := make([]quickAmount, 0, len(quick))
	for _, a := range quick {
		suggestions = append(suggestions, quickAmount{Amount: a, Formatted: fx.Format(a, currency)})
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"currencies":    catalog,
		"currency":      currency,
		"quick_amounts": suggestions,
	})
}

// ListTransactions returns the filtered admin ledger listing.
func (h *SettlementRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.reportUC.ListEntries(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

// GetTransaction returns a single ledger entry by id.
func (h *SettlementRestHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.lifecycleUC.GetEntry(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

// GetSettlementGroup returns all entries sharing a settlement group id.
func (h *SettlementRestHandler) GetSettlementGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	entries, err := h.lifecycleUC.GetGroup(r.Context(), groupID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(entries) == 0 {
		response.Error(w, http.StatusNotFound, xerrors.ErrEntryNotFound.Error())
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

// UpdateTransactionStatus applies an admin lifecycle change to one entry.
func (h *SettlementRestHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update domain.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.lifecycleUC.UpdateStatus(r.Context(), id, &update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

// GetTransactionStats returns the dashboard aggregates.
func (h *SettlementRestHandler) GetTransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportUC.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// ExportTransactions streams the filtered ledger as a CSV download.
func (h *SettlementRestHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	// Export is unpaginated unless the caller asks otherwise.
	if r.URL.Query().Get("limit") == "" {
		filter.Limit = 10000
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reportUC.ExportCSV(r.Context(), filter, w); err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
	}
}

func parseEntryFilter(r *http.Request) (*domain.EntryFilter, error) {
	q := r.URL.Query()
	filter := &domain.EntryFilter{
		Search: q.Get("search"),
	}

	if s := q.Get("status"); s != "" {
		status := domain.EntryStatus(strings.ToUpper(s))
		if !status.IsValid() {
			return nil, xerrors.ErrInvalidEntryStatus
		}
		filter.Status = &status
	}
	if t := q.Get("type"); t != "" {
		entryType := domain.EntryType(strings.ToUpper(t))
		if !entryType.IsValid() {
			return nil, xerrors.ErrInvalidEntryType
		}
		filter.Type = &entryType
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%w: from must be RFC3339", xerrors.ErrInvalidInput)
		}
		filter.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%w: to must be RFC3339", xerrors.ErrInvalidInput)
		}
		filter.To = &ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: limit must be a non-negative integer", xerrors.ErrInvalidInput)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: offset must be a non-negative integer", xerrors.ErrInvalidInput)
		}
		filter.Offset = n
	}

	return filter, nil
}

// writeError maps domain errors to HTTP statuses.
func (h *SettlementRestHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrGatewayRejected):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, xerrors.ErrInvalidInput),
		errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrAmountNotPositive),
		errors.Is(err, xerrors.ErrUnsupportedCurrency),
		errors.Is(err, xerrors.ErrInvalidEntryStatus),
		errors.Is(err, xerrors.ErrInvalidEntryType):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrNotFound),
		errors.Is(err, xerrors.ErrEntryNotFound),
		errors.Is(err, xerrors.ErrContributionNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, xerrors.ErrInternalServer.Error())
	}
}
