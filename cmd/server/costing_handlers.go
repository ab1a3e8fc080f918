package main

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/pricing"
	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
)

// loadProductCatalog reads the product and the catalog snapshot it is costed against in one transaction.
func (s *server) loadProductCatalog(r *http.Request, id int64) (catalog.Product, *catalog.Snapshot, error) {
	return s.store.ProductCatalog(r.Context(), id)
}

func (s *server) handleProductCost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, snap, err := s.loadProductCatalog(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := pricing.ResolveCost(snap, p.Composition, p.SellingPrice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.costs.CostResolved("cost", res.Unresolved)
	writeJSON(w, http.StatusOK, res)
}

type optimizeResponse struct {
	Composition catalog.Composition `json:"composition"`
	Comparison  pricing.Comparison  `json:"comparison"`
	Applied     bool                `json:"applied"`
}

// handleProductOptimize previews the cheapest-supplier composition. POST stores it on the product,
// computing it inside the same transaction that writes it.
func (s *server) handleProductOptimize(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var resp optimizeResponse
	optimize := func(p catalog.Product, snap *catalog.Snapshot) (catalog.Composition, error) {
		optimized := pricing.OptimizeComposition(snap, p.Composition)
		cmp, err := pricing.Compare(snap, p.Composition, optimized, p.SellingPrice)
		if err != nil {
			return nil, err
		}
		resp = optimizeResponse{Composition: optimized, Comparison: cmp}
		return optimized, nil
	}

	if r.Method == http.MethodPost {
		updated, err := s.store.RewriteComposition(r.Context(), id, optimize)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Composition = updated.Composition
		resp.Applied = true
		s.log.InfoContext(r.Context(), "optimized composition applied",
			"product_id", id, "cost_delta", resp.Comparison.CostDelta.String())
	} else {
		p, snap, err := s.loadProductCatalog(r, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if _, err := optimize(p, snap); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.costs.CostResolved("optimize", resp.Comparison.Simulated.Unresolved)
	writeJSON(w, http.StatusOK, resp)
}

type supplierOverride struct {
	Line       int   `json:"line" validate:"gte=0"`
	SupplierID int64 `json:"supplier_id" validate:"required,gt=0"`
}

type simulateRequest struct {
	Overrides []supplierOverride `json:"overrides" validate:"required,min=1,dive"`
	// SellingPrice replaces the product's price for this simulation only.
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
}

func (s *server) handleProductSimulate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req simulateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.SellingPrice != nil && req.SellingPrice.IsNegative() {
		writeJSONError(w, http.StatusBadRequest, "selling_price cannot be negative")
		return
	}

	p, snap, err := s.loadProductCatalog(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	overrides := make(map[int]int64, len(req.Overrides))
	for _, o := range req.Overrides {
		overrides[o.Line] = o.SupplierID
	}
	sellingPrice := p.SellingPrice
	if req.SellingPrice != nil {
		sellingPrice = *req.SellingPrice
	}

	cmp, err := pricing.Simulate(snap, p.Composition, overrides, sellingPrice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.costs.CostResolved("simulate", cmp.Simulated.Unresolved)
	writeJSON(w, http.StatusOK, cmp)
}

type capacityResponse struct {
	ProductID    int64                    `json:"product_id"`
	MaxBatch     int64                    `json:"max_batch"`
	Batch        int64                    `json:"batch,omitempty"`
	Requirements []production.Consumption `json:"requirements,omitempty"`
	Shortages    []production.Shortage    `json:"shortages,omitempty"`
}

// handleProductCapacity reports how many units current stock allows and, with ?batch=N,
// previews the materials that batch would consume without reserving anything.
func (s *server) handleProductCapacity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var batch int64
	if raw := r.URL.Query().Get("batch"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, production.ErrInvalidBatch.Error())
			return
		}
		batch = n
	}

	p, snap, err := s.loadProductCatalog(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stock := func(materialID int64) (decimal.Decimal, error) {
		m, err := snap.Material(materialID)
		if err != nil {
			return decimal.Zero, err
		}
		return m.Stock, nil
	}

	maxBatch, err := production.MaxBatch(p.Composition, stock)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := capacityResponse{ProductID: id, MaxBatch: maxBatch}
	if batch > 0 {
		resp.Batch = batch
		resp.Requirements = production.Requirements(p.Composition, batch)
		if resp.Shortages, err = production.CheckAvailability(resp.Requirements, stock); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
