package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/panelworks/reseller/internal/model"
	"github.com/panelworks/reseller/internal/store"
)

// AdminHandler exposes reseller, product, and plan management plus
// balance credits. All routes behind it require the admin role.
type AdminHandler struct {
	userStore    *store.UserStore
	productStore *store.ProductStore
	planStore    *store.PlanStore
	logger       *slog.Logger
}

func NewAdminHandler(us *store.UserStore, ps *store.ProductStore, pls *store.PlanStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{userStore: us, productStore: ps, planStore: pls, logger: logger}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, model.ErrInvalidArgument
	}
	return id, nil
}

func (h *AdminHandler) ListResellers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.ListResellers()
	if err != nil {
		h.logger.Error("list resellers", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createResellerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) CreateReseller(w http.ResponseWriter, r *http.Request) {
	var req createResellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	user, err := h.userStore.Create(req.Username, req.Password, model.RoleReseller)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("reseller created", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

type updateResellerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` // optional: empty keeps the old one
}

func (h *AdminHandler) UpdateReseller(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateResellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	user, err := h.userStore.Update(id, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteReseller(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.userStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("reseller deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type addCreditsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *AdminHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	if err := h.userStore.Credit(id, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.userStore.GetBalance(id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("credits added", "user_id", id, "amount", req.Amount.String())
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List()
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type productRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	product, err := h.productStore.Create(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) RenameProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	product, err := h.productStore.Rename(id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetProductActive toggles whether a product's plans show up for
// purchase. Inactive products keep their plans and purchase history.
func (h *AdminHandler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	if err := h.productStore.SetActive(id, req.Active); err != nil {
		writeError(w, err)
		return
	}
	product, err := h.productStore.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.productStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planStore.List(false)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

type upsertPlanRequest struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Cost         decimal.Decimal `json:"cost"`
	DurationDays int             `json:"duration_days"`
	DownloadLink string          `json:"download_link"`
}

func (h *AdminHandler) UpsertPlan(w http.ResponseWriter, r *http.Request) {
	var req upsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrInvalidArgument)
		return
	}
	plan, err := h.planStore.Upsert(req.ProductID, req.Name, req.Cost, req.DurationDays, req.DownloadLink)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *AdminHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.planStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("plan deleted", "plan_id", id)
	w.WriteHeader(http.StatusNoContent)
}
