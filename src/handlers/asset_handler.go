package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/techhub5500/Yield-sub002/src/logger"
	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/processors"
	"github.com/techhub5500/Yield-sub002/src/repository"
	"github.com/techhub5500/Yield-sub002/src/security/validation"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// quantityEpsilon absorbs float accumulation noise when checking holdings.
const quantityEpsilon = 1e-9

// AssetHandler owns the manual-entry surface: asset registration, ledger
// transactions and asset deletion.
type AssetHandler struct {
	repo repository.Repository
}

func NewAssetHandler(repo repository.Repository) *AssetHandler {
	return &AssetHandler{repo: repo}
}

type assetRequest struct {
	AssetID    string            `json:"asset_id"`
	Name       string            `json:"name"`
	Ticker     string            `json:"ticker"`
	AssetClass models.AssetClass `json:"asset_class"`
	Category   string            `json:"category"`
	Currency   string            `json:"currency"`
	Status     string            `json:"status"`
	AccountID  string            `json:"account_id"`
	Tags       []string          `json:"tags"`
	Metadata   map[string]any    `json:"metadata"`
}

func (h *AssetHandler) HandleUpsertAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.AssetID = strings.TrimSpace(req.AssetID)
	req.Name = validation.CleanField(req.Name)
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	req.Category = validation.CleanField(req.Category)
	req.AccountID = validation.CleanField(req.AccountID)
	for i, tag := range req.Tags {
		req.Tags[i] = validation.CleanField(tag)
	}

	if err := validation.ValidateAssetID(req.AssetID); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Name, "Name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Name, validation.DefaultMaxStringLength, "Name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !models.ValidAssetClass(req.AssetClass) {
		utils.SendJSONError(w, fmt.Sprintf("unknown asset class %q", req.AssetClass), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateTicker(req.Ticker); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateCurrencyCode(req.Currency); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Currency == "" {
		req.Currency = "BRL"
	}
	if req.Status == "" {
		req.Status = "active"
	}

	asset := &models.Asset{
		UserID:     userID,
		AssetID:    req.AssetID,
		Name:       req.Name,
		Ticker:     req.Ticker,
		AssetClass: req.AssetClass,
		Category:   req.Category,
		Currency:   strings.ToUpper(req.Currency),
		Status:     req.Status,
		AccountID:  req.AccountID,
		Tags:       req.Tags,
		Metadata:   req.Metadata,
	}
	saved, err := h.repo.UpsertAsset(r.Context(), asset)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to upsert asset", "assetID", req.AssetID, "error", err)
		utils.SendJSONError(w, "Failed to save asset", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, saved, http.StatusOK)
}

func (h *AssetHandler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}
	assets, err := h.repo.ListAssets(r.Context(), repository.AssetQuery{UserID: userID})
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list assets", "error", err)
		utils.SendJSONError(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]any{"assets": assets}, http.StatusOK)
}

type transactionRequest struct {
	AssetID       string               `json:"asset_id"`
	ReferenceDate string               `json:"reference_date"`
	Operation     models.OperationType `json:"operation"`
	Quantity      float64              `json:"quantity"`
	Price         float64              `json:"price"`
	GrossAmount   float64              `json:"gross_amount"`
	Fees          float64              `json:"fees"`
	Metadata      map[string]any       `json:"metadata"`
}

func (h *AssetHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}
	ctxLogger := logger.FromContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	refDate, err := validation.ValidateISODateString(req.ReferenceDate, "Reference Date")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !models.ValidOperation(req.Operation) {
		utils.SendJSONError(w, fmt.Sprintf("unknown operation %q", req.Operation), http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 || req.Price < 0 || req.GrossAmount < 0 || req.Fees < 0 {
		utils.SendJSONError(w, "quantity, price, gross_amount and fees cannot be negative", http.StatusBadRequest)
		return
	}
	if (req.Operation == models.OperationBuy || req.Operation == models.OperationSell) && req.Quantity <= 0 {
		utils.SendJSONError(w, "buy and sell operations require a positive quantity", http.StatusBadRequest)
		return
	}

	assets, err := h.repo.ListAssets(r.Context(), repository.AssetQuery{UserID: userID, AssetID: req.AssetID})
	if err != nil || len(assets) == 0 {
		utils.SendJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}
	asset := assets[0]

	existing, err := h.repo.ListTransactions(r.Context(), repository.TransactionQuery{UserID: userID, AssetID: req.AssetID})
	if err != nil {
		ctxLogger.Error("Failed to load transactions", "assetID", req.AssetID, "error", err)
		utils.SendJSONError(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	// A manual sell may never exceed the position held at its date. Replay
	// handles legacy over-sells by clamping, but new entries are rejected.
	if req.Operation == models.OperationSell {
		held := processors.ReplayUntil(existing, refDate).Quantity
		if req.Quantity > held+quantityEpsilon {
			utils.SendJSONError(w,
				fmt.Sprintf("cannot sell %.4f units, only %.4f held on %s", req.Quantity, held, req.ReferenceDate),
				http.StatusUnprocessableEntity)
			return
		}
	}

	tx := &models.Transaction{
		UserID:        userID,
		AssetID:       req.AssetID,
		ReferenceDate: refDate,
		Operation:     req.Operation,
		Quantity:      req.Quantity,
		Price:         req.Price,
		GrossAmount:   req.GrossAmount,
		Fees:          req.Fees,
		Currency:      asset.Currency,
		AssetClass:    asset.AssetClass,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now().UTC(),
	}
	saved, err := h.repo.InsertInvestmentTransaction(r.Context(), tx)
	if err != nil {
		ctxLogger.Error("Failed to insert transaction", "assetID", req.AssetID, "error", err)
		utils.SendJSONError(w, "Failed to save transaction", http.StatusInternalServerError)
		return
	}

	// Snapshot side-effect: position state right after this operation, so
	// legacy reads and audits never need a full replay.
	state := processors.ReplayUntil(append(existing, *saved), refDate)
	snap := &models.PositionSnapshot{
		UserID:         userID,
		AssetID:        req.AssetID,
		ReferenceDate:  refDate,
		Quantity:       state.Quantity,
		AvgPrice:       state.AvgCost,
		InvestedAmount: state.InvestedCapital,
		Source:         "manual",
		ActionType:     string(req.Operation),
	}
	if _, err := h.repo.InsertPositionSnapshot(r.Context(), snap); err != nil {
		// The transaction is the source of truth; a failed snapshot is
		// logged and the request still succeeds.
		ctxLogger.Warn("Failed to record position snapshot", "assetID", req.AssetID, "error", err)
	}

	utils.SendJSON(w, saved, http.StatusCreated)
}

type deleteAssetRequest struct {
	Confirmation string `json:"confirmation"`
}

// HandleDeleteAsset removes an asset and its full history. The body must
// carry the exact confirmation phrase "DELETE <asset_id>".
func (h *AssetHandler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "assetID")

	var req deleteAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Confirmation != "DELETE "+assetID {
		utils.SendJSONError(w, fmt.Sprintf("confirmation phrase must be %q", "DELETE "+assetID), http.StatusBadRequest)
		return
	}

	deleted, err := h.repo.DeleteAsset(r.Context(), userID, assetID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete asset", "assetID", assetID, "error", err)
		utils.SendJSONError(w, "Failed to delete asset", http.StatusInternalServerError)
		return
	}
	if !deleted {
		utils.SendJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}
	logger.FromContext(r.Context()).Info("Asset deleted with full history", "assetID", assetID)
	utils.SendJSON(w, map[string]any{"deleted": true, "asset_id": assetID}, http.StatusOK)
}
