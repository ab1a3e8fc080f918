package catalog

import (
	"fmt"
	"sort"
)

type priceKey struct {
	materialID int64
	supplierID int64
}

// Snapshot is an immutable in-memory view of suppliers, materials and prices.
// It is safe for concurrent readers.
type Snapshot struct {
	suppliers map[int64]Supplier
	materials map[int64]Material
	prices    map[priceKey]PriceEntry
	byMat     map[int64][]PriceEntry
}

// NewSnapshot indexes the given rows. A later price for the same (material, supplier)
// pair replaces an earlier one.
func NewSnapshot(suppliers []Supplier, materials []Material, prices []PriceEntry) *Snapshot {
	s := &Snapshot{
		suppliers: make(map[int64]Supplier, len(suppliers)),
		materials: make(map[int64]Material, len(materials)),
		prices:    make(map[priceKey]PriceEntry, len(prices)),
		byMat:     make(map[int64][]PriceEntry),
	}
	for _, sup := range suppliers {
		s.suppliers[sup.ID] = sup
	}
	for _, m := range materials {
		s.materials[m.ID] = m
	}
	for _, p := range prices {
		s.prices[priceKey{p.MaterialID, p.SupplierID}] = p
	}
	for _, p := range s.prices {
		s.byMat[p.MaterialID] = append(s.byMat[p.MaterialID], p)
	}
	for id, list := range s.byMat {
		sort.Slice(list, func(i, j int) bool {
			if c := list[i].UnitPrice.Cmp(list[j].UnitPrice); c != 0 {
				return c < 0
			}
			return list[i].SupplierID < list[j].SupplierID
		})
		s.byMat[id] = list
	}
	return s
}

func (s *Snapshot) Material(id int64) (Material, error) {
	m, ok := s.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
	}
	return m, nil
}

func (s *Snapshot) Supplier(id int64) (Supplier, error) {
	sup, ok := s.suppliers[id]
	if !ok {
		return Supplier{}, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	return sup, nil
}

func (s *Snapshot) Price(materialID, supplierID int64) (PriceEntry, bool) {
	p, ok := s.prices[priceKey{materialID, supplierID}]
	return p, ok
}

// PricesForMaterial returns a copy of the material's prices, cheapest first, ties by supplier id.
func (s *Snapshot) PricesForMaterial(materialID int64) []PriceEntry {
	list := s.byMat[materialID]
	out := make([]PriceEntry, len(list))
	copy(out, list)
	return out
}

// Materials returns every material ordered by id.
func (s *Snapshot) Materials() []Material {
	out := make([]Material, 0, len(s.materials))
	for _, m := range s.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
