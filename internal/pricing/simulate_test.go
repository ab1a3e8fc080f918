package pricing

import (
	"testing"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

func TestOptimizeComposition_PicksCheapestSupplier(t *testing.T) {
	cat := testCatalog()
	comp := catalog.Composition{
		{MaterialID: 10, SupplierID: 1, Quantity: dec("4")},
		{MaterialID: 12, SupplierID: 2, Quantity: dec("1")},
	}

	opt := OptimizeComposition(cat, comp)

	if opt[0].SupplierID != 2 {
		t.Fatalf("expected supplier 2 for copper wire, got %d", opt[0].SupplierID)
	}
	if opt[1].SupplierID != 2 {
		t.Fatalf("line without prices must be unchanged, got supplier %d", opt[1].SupplierID)
	}
	if comp[0].SupplierID != 1 {
		t.Fatalf("original composition was mutated: %+v", comp)
	}
}

func TestOptimizeComposition_TieBreak(t *testing.T) {
	cat := testCatalog()

	keep := OptimizeComposition(cat, catalog.Composition{{MaterialID: 11, SupplierID: 3, Quantity: dec("1")}})
	if keep[0].SupplierID != 3 {
		t.Fatalf("tied current supplier must be kept, got %d", keep[0].SupplierID)
	}

	// supplier 2 does not sell casings: fall back to lowest id among the cheapest (1 and 3)
	lowest := OptimizeComposition(cat, catalog.Composition{{MaterialID: 11, SupplierID: 2, Quantity: dec("1")}})
	if lowest[0].SupplierID != 1 {
		t.Fatalf("expected lowest supplier id 1, got %d", lowest[0].SupplierID)
	}
}

func TestOptimizeComposition_NeverIncreasesCost(t *testing.T) {
	cat := testCatalog()
	comps := []catalog.Composition{
		{{MaterialID: 10, SupplierID: 1, Quantity: dec("4")}},
		{{MaterialID: 10, SupplierID: 2, Quantity: dec("0.3")}, {MaterialID: 11, SupplierID: 3, Quantity: dec("7")}},
		{{MaterialID: 11, SupplierID: 1, Quantity: dec("2")}, {MaterialID: 10, SupplierID: 1, Quantity: dec("1.25")}},
		{},
	}

	for i, comp := range comps {
		cmp, err := Compare(cat, comp, OptimizeComposition(cat, comp), dec("30"))
		if err != nil {
			t.Fatalf("case %d: Compare returned error: %v", i, err)
		}
		if cmp.CostDelta.IsPositive() {
			t.Fatalf("case %d: optimized cost increased by %s", i, cmp.CostDelta)
		}
	}
}

func TestCompare_Deltas(t *testing.T) {
	cat := testCatalog()
	orig := catalog.Composition{{MaterialID: 10, SupplierID: 1, Quantity: dec("4")}}

	cmp, err := Compare(cat, orig, OptimizeComposition(cat, orig), dec("15"))
	if err != nil {
		t.Fatalf("Compare returned error: %v", err)
	}

	equalDecimal(t, "original cost", cmp.Original.TotalCost, dec("10"))
	equalDecimal(t, "simulated cost", cmp.Simulated.TotalCost, dec("8.4"))
	equalDecimal(t, "cost delta", cmp.CostDelta, dec("-1.6"))
	equalDecimal(t, "profit delta", cmp.ProfitDelta, dec("1.6"))
	if !cmp.MarginDelta.IsPositive() {
		t.Fatalf("expected positive margin delta, got %s", cmp.MarginDelta)
	}
}

func TestSimulate_ManualOverride(t *testing.T) {
	cat := testCatalog()
	orig := catalog.Composition{
		{MaterialID: 10, SupplierID: 2, Quantity: dec("1")},
		{MaterialID: 11, SupplierID: 1, Quantity: dec("10")},
	}

	cmp, err := Simulate(cat, orig, map[int]int64{0: 1}, dec("10"))
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	equalDecimal(t, "cost delta", cmp.CostDelta, dec("0.40"))
	if cmp.Simulated.Lines[0].SupplierName != "Alfa" || orig[0].SupplierID != 2 {
		t.Fatalf("override not applied to copy only: %+v / %+v", cmp.Simulated.Lines[0], orig[0])
	}

	if _, err := Simulate(cat, orig, map[int]int64{5: 1}, dec("10")); err == nil {
		t.Fatalf("expected error for out-of-range override")
	}
}
