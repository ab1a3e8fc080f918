package main

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/sales"
)

type saleItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
	// Optional; the ledger defaults them and rejects negatives.
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

type createSaleRequest struct {
	Items []saleItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes string            `json:"notes" validate:"max=1000"`
}

func (s *server) handleSalesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSales(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleSaleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in := sales.RecordInput{Notes: req.Notes, Items: make([]sales.ItemInput, 0, len(req.Items))}
	for _, it := range req.Items {
		in.Items = append(in.Items, sales.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
		})
	}
	sale, err := s.sales.Record(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (s *server) handleSaleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := s.store.GetSale(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Dashboard(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
