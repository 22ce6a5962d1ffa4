package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(t.TempDir())

	if err := p.Put(ctx, "b", "archive/ep-1/dump.json", strings.NewReader(`{"ok":true}`), "application/json", ""); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := p.Exists(ctx, "b", "archive/ep-1/dump.json")
	if err != nil || !ok {
		t.Fatalf("expected object to exist, ok=%v err=%v", ok, err)
	}
	if ok, _ := p.Exists(ctx, "b", "archive/ep-1"); ok {
		t.Errorf("a directory is not an object")
	}

	obj, err := p.Get(ctx, "b", "archive/ep-1/dump.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	if string(body) != `{"ok":true}` || obj.ContentType != "application/json" {
		t.Errorf("unexpected object %q (%s)", body, obj.ContentType)
	}

	if err := p.Delete(ctx, "b", "archive/ep-1/dump.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := p.Delete(ctx, "b", "archive/ep-1/dump.json"); err != nil {
		t.Errorf("deleting twice should be a no-op, got %v", err)
	}
	if _, err := p.Get(ctx, "b", "archive/ep-1/dump.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientListIngestFiles(t *testing.T) {
	ctx := context.Background()
	c := NewWithProvider(NewLocalProvider(t.TempDir()), "in", "out")

	if keys, err := c.ListIngestFiles(ctx); err != nil || len(keys) != 0 {
		t.Fatalf("expected empty queue for a missing bucket, got %v %v", keys, err)
	}

	for _, key := range []string{"b.yaml", "a.json", "nested/c.json"} {
		if err := c.UploadIngestFile(ctx, key, strings.NewReader("{}"), "application/json"); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}

	keys, err := c.ListIngestFiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a.json", "b.yaml", "nested/c.json"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, keys)
	}
}
