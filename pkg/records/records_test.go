package records

import "testing"

func TestNewFrameCopiesColumns(t *testing.T) {
	cols := []string{"a", "b"}
	f := NewFrame(cols)
	cols[0] = "mutated"
	if f.Columns[0] != "a" {
		t.Fatal("NewFrame must copy the column slice")
	}
}

func TestHasColumn(t *testing.T) {
	f := NewFrame([]string{"a", "b"})
	if !f.HasColumn("a") || f.HasColumn("c") {
		t.Fatalf("HasColumn wrong for %v", f.Columns)
	}
}

/*
TestClone verifies the copy is deep: mutating a cloned row or column must
not touch the original.
*/
func TestClone(t *testing.T) {
	f := NewFrame([]string{"a"})
	f.Rows = []Record{{"a": "original"}}

	cp := f.Clone()
	cp.Rows[0]["a"] = "changed"
	cp.Columns[0] = "renamed"

	if f.Rows[0]["a"] != "original" {
		t.Fatal("clone shares row storage with original")
	}
	if f.Columns[0] != "a" {
		t.Fatal("clone shares column storage with original")
	}
	if cp.Len() != f.Len() {
		t.Fatalf("lengths diverged: %d vs %d", cp.Len(), f.Len())
	}
}
