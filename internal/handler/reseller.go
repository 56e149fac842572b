package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/panelworks/reseller/internal/auth"
	"github.com/panelworks/reseller/internal/model"
	"github.com/panelworks/reseller/internal/store"
)

// ResellerHandler serves the reseller's panel data, executes
// purchases, and redirects to download links.
type ResellerHandler struct {
	userStore     *store.UserStore
	planStore     *store.PlanStore
	purchaseStore *store.PurchaseStore
	logger        *slog.Logger
}

func NewResellerHandler(us *store.UserStore, pls *store.PlanStore, pus *store.PurchaseStore, logger *slog.Logger) *ResellerHandler {
	return &ResellerHandler{userStore: us, planStore: pls, purchaseStore: pus, logger: logger}
}

type panelResponse struct {
	Balance   model.Money                   `json:"balance"`
	Plans     []*model.PlanListing          `json:"plans"`
	Purchases []*model.PurchaseHistoryEntry `json:"purchases"`
}

// Panel returns the reseller's balance, the purchasable plans of
// active products, and the purchase history.
func (h *ResellerHandler) Panel(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	balance, err := h.userStore.GetBalance(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	plans, err := h.planStore.List(true)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeError(w, err)
		return
	}
	history, err := h.purchaseStore.History(userID)
	if err != nil {
		h.logger.Error("purchase history", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panelResponse{Balance: balance, Plans: plans, Purchases: history})
}

type purchaseRequest struct {
	PlanID int64 `json:"plan_id"`
}

func (h *ResellerHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	userID := auth.UserID(r.Context())

	purchase, err := h.purchaseStore.Purchase(userID, req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("purchase completed",
		"user_id", userID,
		"plan_id", req.PlanID,
		"reference", purchase.Reference,
		"cost_paid", purchase.CostPaid.String(),
	)
	writeJSON(w, http.StatusCreated, purchase)
}

// Download resolves the purchase's download link and redirects to it.
// Only the purchase's owner may follow it; admins get no override.
func (h *ResellerHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	userID := auth.UserID(r.Context())

	link, err := h.purchaseStore.ResolveDownload(id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}
