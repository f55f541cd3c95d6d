package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestPutGetDelete(t *testing.T) {
	d := openTestDB(t)

	if err := d.Put("session", "current", []byte("blob")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, ok, err := d.Get("session", "current")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected key to exist")
	}
	if string(value) != "blob" {
		t.Errorf("Expected blob, got %s", value)
	}

	if err := d.Delete("session", "current"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, ok, err = d.Get("session", "current")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected key to be gone")
	}
}

func TestGetMissingKey(t *testing.T) {
	d := openTestDB(t)

	_, ok, err := d.Get("likes", "liked")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Missing key should report absent, not error")
	}
}

func TestPutOverwrites(t *testing.T) {
	d := openTestDB(t)

	d.Put("likes", "liked", []byte("v1"))
	d.Put("likes", "liked", []byte("v2"))

	value, ok, _ := d.Get("likes", "liked")
	if !ok || string(value) != "v2" {
		t.Errorf("Expected v2, got %s (found=%v)", value, ok)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	d := openTestDB(t)

	d.Put("session", "key", []byte("a"))
	d.Put("likes", "key", []byte("b"))

	v1, _, _ := d.Get("session", "key")
	v2, _, _ := d.Get("likes", "key")
	if string(v1) != "a" || string(v2) != "b" {
		t.Errorf("Namespaces must not collide: %s / %s", v1, v2)
	}

	d.Delete("session", "key")
	_, ok, _ := d.Get("likes", "key")
	if !ok {
		t.Error("Deleting one namespace must not touch another")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := openTestDB(t)

	type record struct {
		Name  string   `json:"name"`
		Likes []string `json:"likes"`
	}

	in := record{Name: "alice", Likes: []string{"p1", "p2"}}
	if err := d.PutJSON("likes", "liked", &in); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	var out record
	found, err := d.GetJSON("likes", "liked", &out)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to exist")
	}
	if out.Name != "alice" || len(out.Likes) != 2 {
		t.Errorf("Unexpected round trip result: %+v", out)
	}

	var missing record
	found, err = d.GetJSON("likes", "nothing", &missing)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if found {
		t.Error("Missing key should report absent")
	}
}
