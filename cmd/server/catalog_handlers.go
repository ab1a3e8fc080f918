package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/pricing"
)

type supplierRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	TaxID string `json:"tax_id" validate:"max=32"`
	Phone string `json:"phone" validate:"max=32"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (s *server) handleSuppliersList(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.store.ListSuppliers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (s *server) handleSupplierCreate(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sup, err := s.store.CreateSupplier(r.Context(), catalog.Supplier{
		Name:  req.Name,
		TaxID: req.TaxID,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sup)
}

func (s *server) handleSupplierGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sup, err := s.store.GetSupplier(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *server) handleSupplierUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req supplierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sup := catalog.Supplier{ID: id, Name: req.Name, TaxID: req.TaxID, Phone: req.Phone, Email: req.Email}
	if err := s.store.UpdateSupplierContact(r.Context(), sup); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.GetSupplier(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleSupplierDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteSupplier(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type materialRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Unit        string          `json:"unit" validate:"required,max=16"`
	Stock       decimal.Decimal `json:"stock" validate:"gte=0"`
	MinStock    decimal.Decimal `json:"min_stock" validate:"gte=0"`
	Description string          `json:"description" validate:"max=1000"`
}

// materialView adds the supplier price summary shown in material listings.
type materialView struct {
	catalog.Material
	Prices pricing.Stats `json:"prices"`
}

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	materials := snap.Materials()
	views := make([]materialView, 0, len(materials))
	for _, m := range materials {
		views = append(views, materialView{Material: m, Prices: pricing.PriceStats(snap, m.ID)})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleMaterialsLowStock(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.LowStock(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	m, err := s.store.CreateMaterial(r.Context(), catalog.Material{
		Name:        req.Name,
		Unit:        req.Unit,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleMaterialGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := s.store.GetMaterial(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleMaterialUpdate ignores the stock field; stock only moves through production runs.
func (s *server) handleMaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req materialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	m := catalog.Material{ID: id, Name: req.Name, Unit: req.Unit, MinStock: req.MinStock, Description: req.Description}
	if err := s.store.UpdateMaterial(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.GetMaterial(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleMaterialDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteMaterial(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMaterialQuotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quotes, err := pricing.SupplierQuotes(snap, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"material_id": id,
		"quotes":      quotes,
		"stats":       pricing.PriceStats(snap, id),
	})
}

type priceRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	SupplierID int64           `json:"supplier_id" validate:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

func (s *server) handlePricesList(w http.ResponseWriter, r *http.Request) {
	prices, err := s.store.ListPrices(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *server) handlePriceUpsert(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := s.store.UpsertPrice(r.Context(), catalog.PriceEntry{
		MaterialID: req.MaterialID,
		SupplierID: req.SupplierID,
		UnitPrice:  req.UnitPrice,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePriceDelete(w http.ResponseWriter, r *http.Request) {
	materialID, ok := idParam(w, r, "materialID")
	if !ok {
		return
	}
	supplierID, ok := idParam(w, r, "supplierID")
	if !ok {
		return
	}
	if err := s.store.DeletePrice(r.Context(), materialID, supplierID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type compositionLineRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	SupplierID int64           `json:"supplier_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type productRequest struct {
	Name         string                   `json:"name" validate:"required,max=200"`
	SellingPrice decimal.Decimal          `json:"selling_price" validate:"gte=0"`
	Composition  []compositionLineRequest `json:"composition" validate:"dive"`
}

func (req productRequest) product(id int64) catalog.Product {
	comp := make(catalog.Composition, 0, len(req.Composition))
	for _, l := range req.Composition {
		comp = append(comp, catalog.CompositionLine{MaterialID: l.MaterialID, SupplierID: l.SupplierID, Quantity: l.Quantity})
	}
	return catalog.Product{ID: id, Name: req.Name, SellingPrice: req.SellingPrice, Composition: comp}
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := s.store.CreateProduct(r.Context(), req.product(0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := s.store.UpdateProduct(r.Context(), req.product(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
