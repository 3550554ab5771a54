package hdmv

import "testing"

func TestOrderedObjectsDefaultsToArrivalOrder(t *testing.T) {
	ds := newDisplaySet(GraphicsPGS, false)
	ds.addObject(&ObjectDefinition{ObjectID: 5})
	ds.addObject(&ObjectDefinition{ObjectID: 2})
	ds.addObject(&ObjectDefinition{ObjectID: 9})

	got := ds.orderedObjects()
	want := []uint16{5, 2, 9}
	if len(got) != len(want) {
		t.Fatalf("got %d objects, want %d", len(got), len(want))
	}
	for i, o := range got {
		if o.ObjectID != want[i] {
			t.Errorf("orderedObjects()[%d].ObjectID = %d, want %d", i, o.ObjectID, want[i])
		}
	}
}

func TestOrderedObjectsByValueSortsAscending(t *testing.T) {
	ds := newDisplaySet(GraphicsPGS, true)
	ds.addObject(&ObjectDefinition{ObjectID: 5})
	ds.addObject(&ObjectDefinition{ObjectID: 2})
	ds.addObject(&ObjectDefinition{ObjectID: 9})

	got := ds.orderedObjects()
	want := []uint16{2, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %d objects, want %d", len(got), len(want))
	}
	for i, o := range got {
		if o.ObjectID != want[i] {
			t.Errorf("orderedObjects()[%d].ObjectID = %d, want %d", i, o.ObjectID, want[i])
		}
	}
}

func TestBeginDisplaySetCarriesOrderByValue(t *testing.T) {
	e := NewEpochState(GraphicsPGS, true, true)
	e.beginDisplaySet(false)
	if !e.DS.orderByValue {
		t.Error("expected orderByValue to survive a non-epoch-start DS transition")
	}
	e.beginDisplaySet(true)
	if !e.DS.orderByValue {
		t.Error("expected orderByValue to survive an epoch-start DS transition")
	}
}
