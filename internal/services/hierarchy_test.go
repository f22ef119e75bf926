package services

import (
	"context"
	"testing"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func TestResolveReturnsSubtree(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	root := seedProduct(t, gdb, "Карты", nil)
	debit := seedProduct(t, gdb, "Дебетовые карты", root)
	credit := seedProduct(t, gdb, "Кредитные карты", root)
	subtype := seedProduct(t, gdb, "Премиальные карты", credit)
	other := seedProduct(t, gdb, "Вклады", nil)

	ids, err := hierarchy.Resolve(context.Background(), nil, root.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	want := map[int64]bool{root.ID: true, debit.ID: true, credit.ID: true, subtype.ID: true}
	if len(ids) != len(want) {
		t.Fatalf("resolve returned %v, want ids of %d nodes", ids, len(want))
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d in resolve result", id)
		}
		seen[id] = true
		if !want[id] {
			t.Fatalf("unexpected id %d in resolve result", id)
		}
		if id == other.ID {
			t.Fatalf("resolve leaked a foreign subtree")
		}
	}

	leaf, err := hierarchy.Resolve(context.Background(), nil, subtype.ID)
	if err != nil {
		t.Fatalf("leaf resolve failed: %v", err)
	}
	if len(leaf) != 1 || leaf[0] != subtype.ID {
		t.Fatalf("leaf resolve = %v", leaf)
	}
}

func TestCategoryCountsSpanChildren(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	root := seedProduct(t, gdb, "Карты", nil)
	debit := seedProduct(t, gdb, "Дебетовые карты", root)
	credit := seedProduct(t, gdb, "Кредитные карты", root)
	seedReview(t, gdb, debit, "2025-03-10", types.SentimentPositive, 5)
	seedReview(t, gdb, credit, "2025-03-12", types.SentimentNegative, 2)

	ids, err := hierarchy.Resolve(context.Background(), nil, root.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	count, err := reviewRepo.CountDistinct(context.Background(), nil, ids, mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"), nil, nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("category count = %d, want 2", count)
	}
}

func TestGetTreeOrderingAndFilter(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	seedProduct(t, gdb, "Вклады", nil)
	cards := seedProduct(t, gdb, "Карты", nil)
	seedProduct(t, gdb, "Кредитные карты", cards)
	business := &types.Product{Name: "Эквайринг", Type: types.ProductTypeCategory, ClientType: types.ClientTypeBusiness}
	if err := gdb.Create(business).Error; err != nil {
		t.Fatalf("failed to seed business product: %v", err)
	}

	tree, err := hierarchy.GetTree(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("unfiltered tree has %d roots, want 3", len(tree))
	}
	if tree[0].Name != "Вклады" || tree[1].Name != "Карты" {
		t.Fatalf("roots not sorted by name: %s, %s", tree[0].Name, tree[1].Name)
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Name != "Кредитные карты" {
		t.Fatalf("children missing: %+v", tree[1].Children)
	}

	individual := types.ClientTypeIndividual
	filtered, err := hierarchy.GetTree(context.Background(), nil, &individual)
	if err != nil {
		t.Fatalf("filtered tree failed: %v", err)
	}
	for _, root := range filtered {
		if root.Name == "Эквайринг" {
			t.Fatalf("business-only root leaked into individual tree")
		}
	}
	if len(filtered) != 2 {
		t.Fatalf("filtered tree has %d roots, want 2", len(filtered))
	}
}

func TestGetOrCreateBuildsParentChain(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	product, created, err := hierarchy.GetOrCreate(context.Background(), nil, "Ипотека")
	if err != nil {
		t.Fatalf("get-or-create failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("created %d products, want 2 (parent and child)", created)
	}
	if product.Level != 1 || product.Type != types.ProductTypeSubcategory {
		t.Fatalf("child misplaced: level=%d type=%s", product.Level, product.Type)
	}

	parent, err := productRepo.GetByName(context.Background(), nil, "кредитование")
	if err != nil || parent == nil {
		t.Fatalf("parent category missing: %v", err)
	}
	if product.ParentID == nil || *product.ParentID != parent.ID {
		t.Fatalf("child not linked to parent")
	}
	if parent.Level != 0 || parent.ParentID != nil {
		t.Fatalf("parent must be a root: %+v", parent)
	}

	// Second call is a pure lookup, case-insensitive.
	again, createdAgain, err := hierarchy.GetOrCreate(context.Background(), nil, "ипотека")
	if err != nil {
		t.Fatalf("second get-or-create failed: %v", err)
	}
	if createdAgain != 0 || again.ID != product.ID {
		t.Fatalf("lookup created duplicates: created=%d id=%d", createdAgain, again.ID)
	}
}

// SQLite's LOWER() folds ASCII only, so matching has to go through the
// Go-folded name column or uppercase Cyrillic names duplicate products.
func TestGetOrCreateMatchesCyrillicCase(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	cards := seedProduct(t, gdb, "Карты", nil)

	found, created, err := hierarchy.GetOrCreate(context.Background(), nil, "КАРТЫ")
	if err != nil {
		t.Fatalf("get-or-create failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("uppercase lookup created %d products, want 0", created)
	}
	if found.ID != cards.ID {
		t.Fatalf("uppercase lookup returned product %d, want %d", found.ID, cards.ID)
	}

	var total int64
	if err := gdb.Model(&types.Product{}).Count(&total).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("product table has %d rows, want 1", total)
	}

	exists, err := productRepo.NameExists(context.Background(), nil, "кАрТы")
	if err != nil {
		t.Fatalf("name-exists failed: %v", err)
	}
	if !exists {
		t.Fatalf("mixed-case name not found")
	}
}
