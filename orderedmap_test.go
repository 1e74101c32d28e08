package acmi

import (
	"reflect"
	"testing"
)

func TestOrderedMapInsertionOrder(t *testing.T) {
	om := newOrderedMap[string, int]()
	om.set("b", 2)
	om.set("a", 1)
	om.set("c", 3)

	want := []string{"b", "a", "c"}
	if got := om.keysInOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("keysInOrder = %v, want %v", got, want)
	}
}

func TestOrderedMapSetExistingKeepsPosition(t *testing.T) {
	om := newOrderedMap[string, int]()
	om.set("a", 1)
	om.set("b", 2)
	om.set("a", 99)

	want := []string{"a", "b"}
	if got := om.keysInOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("keysInOrder = %v, want %v", got, want)
	}
	v, ok := om.get("a")
	if !ok || v != 99 {
		t.Errorf("get(a) = %v, %v, want 99, true", v, ok)
	}
}

func TestOrderedMapDelete(t *testing.T) {
	om := newOrderedMap[string, int]()
	om.set("a", 1)
	om.set("b", 2)
	om.delete("a")

	if _, ok := om.get("a"); ok {
		t.Errorf("expected a to be gone")
	}
	want := []string{"b"}
	if got := om.keysInOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("keysInOrder = %v, want %v", got, want)
	}
	if om.len() != 1 {
		t.Errorf("len = %d, want 1", om.len())
	}
}

func TestOrderedMapCloneIsIndependent(t *testing.T) {
	om := newOrderedMap[string, int]()
	om.set("a", 1)

	clone := om.clone()
	clone.set("b", 2)

	if om.len() != 1 {
		t.Errorf("original mutated: len = %d, want 1", om.len())
	}
	if clone.len() != 2 {
		t.Errorf("clone len = %d, want 2", clone.len())
	}
}
