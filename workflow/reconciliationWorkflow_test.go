package workflow

import (
	"testing"

	"github.com/HeshMedia/insurezeal-sub005/recon"
)

// NOTE: DB-free, same as the cutpay workflow tests. The write plan is where
// the apply step decides insert vs refresh; executing it needs MySQL.

func TestPlanUniversalWrites_DuplicateAddedPolicyInsertsOnce(t *testing.T) {
	details := []recon.ChangeDetail{
		{RowIndex: 0, PolicyNumber: "POL-NEW-1", Action: recon.ActionAdded},
		{RowIndex: 1, PolicyNumber: "POL-NEW-2", Action: recon.ActionAdded},
		{RowIndex: 2, PolicyNumber: "POL-NEW-1", Action: recon.ActionAdded},
	}

	writes := planUniversalWrites(map[string]bool{}, details)
	if len(writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(writes))
	}

	inserts := 0
	for _, w := range writes {
		if w.insert {
			inserts++
		}
	}
	if inserts != 2 {
		t.Fatalf("expected 2 inserts for 2 distinct policies, got %d", inserts)
	}
	if !writes[0].insert || !writes[1].insert {
		t.Fatal("first occurrence of each policy should insert")
	}
	if writes[2].insert {
		t.Fatal("second added row for POL-NEW-1 must refresh, not insert again")
	}
}

func TestPlanUniversalWrites_ExistingPolicyNeverInserts(t *testing.T) {
	existing := map[string]bool{"POL-OLD": true}
	details := []recon.ChangeDetail{
		{RowIndex: 0, PolicyNumber: "POL-OLD", Action: recon.ActionAdded},
		{RowIndex: 1, PolicyNumber: "POL-OLD", Action: recon.ActionUpdated},
	}

	writes := planUniversalWrites(existing, details)
	for i, w := range writes {
		if w.insert {
			t.Fatalf("write %d: policy already stored, expected refresh", i)
		}
	}
}

func TestPlanUniversalWrites_SkippedAndErrorRowsProduceNoWrite(t *testing.T) {
	details := []recon.ChangeDetail{
		{RowIndex: 0, PolicyNumber: "POL-1", Action: recon.ActionSkipped},
		{RowIndex: 1, Action: recon.ActionError, Message: "policy number missing or unparseable"},
		{RowIndex: 2, PolicyNumber: "POL-2", Action: recon.ActionAdded},
	}

	writes := planUniversalWrites(map[string]bool{}, details)
	if len(writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(writes))
	}
	if writes[0].detail.PolicyNumber != "POL-2" || !writes[0].insert {
		t.Fatalf("expected insert for POL-2, got %+v", writes[0])
	}
}

func TestPlanUniversalWrites_PreservesFileOrder(t *testing.T) {
	details := []recon.ChangeDetail{
		{RowIndex: 0, PolicyNumber: "A", Action: recon.ActionAdded},
		{RowIndex: 1, PolicyNumber: "B", Action: recon.ActionUpdated},
		{RowIndex: 2, PolicyNumber: "A", Action: recon.ActionAdded},
		{RowIndex: 3, PolicyNumber: "C", Action: recon.ActionAdded},
	}

	writes := planUniversalWrites(map[string]bool{"B": true}, details)
	for i, w := range writes {
		if w.detail.RowIndex != details[i].RowIndex {
			t.Fatalf("write %d out of order: got row %d", i, w.detail.RowIndex)
		}
	}
}
