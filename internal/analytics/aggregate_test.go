package analytics

import (
	"testing"

	"finboard/internal/core"
)

func expenseKey(e core.Expense) string     { return e.Category }
func expenseAmount(e core.Expense) float64 { return e.Amount }

func TestGroupSum(t *testing.T) {
	records := []core.Expense{
		{Category: "Travel", Amount: 100},
		{Category: "Food", Amount: 200},
		{Category: "Travel", Amount: 50},
		{Category: "", Amount: 10},
	}

	groups := GroupSum(records, expenseKey, expenseAmount)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	// Insertion order of first occurrence.
	if groups[0].Key != "Travel" || groups[0].Sum != 150 || groups[0].Count != 2 {
		t.Errorf("travel group wrong: %+v", groups[0])
	}
	if groups[1].Key != "Food" || groups[1].Sum != 200 || groups[1].Count != 1 {
		t.Errorf("food group wrong: %+v", groups[1])
	}
	if groups[2].Key != Unassigned || groups[2].Sum != 10 {
		t.Errorf("missing key must fall back to sentinel: %+v", groups[2])
	}
}

func TestGroupSumEmptyInput(t *testing.T) {
	groups := GroupSum(nil, expenseKey, expenseAmount)
	if len(groups) != 0 {
		t.Fatalf("empty input must yield empty mapping, got %d", len(groups))
	}
}

func TestGroupSumInvalidAmountStillCounted(t *testing.T) {
	groups := GroupSum([]core.Expense{{Category: "Misc", Amount: -42}}, expenseKey, expenseAmount)
	if len(groups) != 1 || groups[0].Sum != 0 || groups[0].Count != 1 {
		t.Fatalf("invalid amount must contribute 0 but still count: %+v", groups)
	}
}

func TestTopN(t *testing.T) {
	groups := []Group{
		{Key: "a", Sum: 10},
		{Key: "b", Sum: 30},
		{Key: "c", Sum: 20},
	}

	top := TopN(groups, 2)
	if len(top) != 2 || top[0].Key != "b" || top[1].Key != "c" {
		t.Errorf("unexpected top-2: %+v", top)
	}
	// Input untouched.
	if groups[0].Key != "a" {
		t.Error("TopN must not reorder its input")
	}
	if all := TopN(groups, 0); len(all) != 3 {
		t.Errorf("n<=0 must return all groups, got %d", len(all))
	}
}

func TestMergeGroups(t *testing.T) {
	a := []Group{{Key: "food", Sum: 100, Count: 2}}
	b := []Group{{Key: "food", Sum: 50, Count: 1}, {Key: "transport", Sum: 20, Count: 1}}

	merged := MergeGroups(a, b)
	if len(merged) != 2 {
		t.Fatalf("got %d groups, want 2", len(merged))
	}
	if merged[0].Key != "food" || merged[0].Sum != 150 || merged[0].Count != 3 {
		t.Errorf("food not merged additively: %+v", merged[0])
	}
	if merged[1].Key != "transport" || merged[1].Sum != 20 {
		t.Errorf("transport wrong: %+v", merged[1])
	}
}
