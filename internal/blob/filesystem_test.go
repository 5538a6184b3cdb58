package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFilesystemStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	info, err := store.Put(ctx, "recipes/1/photo", strings.NewReader("jpegbytes"), PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" {
		t.Fatal("expected sha256 etag")
	}
	if info.URL == "" {
		t.Fatal("expected local url")
	}

	if _, err := store.Put(ctx, "recipes/1/photo", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatal("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, "recipes/1/photo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "jpegbytes" {
		t.Fatalf("body = %q", body)
	}
	if got.ContentType != "image/jpeg" || got.Size != int64(len("jpegbytes")) {
		t.Fatalf("info = %+v", got)
	}

	head, err := store.Head(ctx, "recipes/1/photo")
	if err != nil || head.ETag != info.ETag {
		t.Fatalf("head = %+v err = %v", head, err)
	}

	infos, err := store.List(ctx, "recipes/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("list = %+v err = %v", infos, err)
	}

	url, err := store.PresignURL(ctx, "recipes/1/photo", SignedURLOptions{})
	if err != nil || url == "" {
		t.Fatalf("presign = %q err = %v", url, err)
	}

	existed, err := store.Delete(ctx, "recipes/1/photo")
	if err != nil || !existed {
		t.Fatalf("delete = %v, %v", existed, err)
	}
	if _, err := store.Head(ctx, "recipes/1/photo"); err == nil {
		t.Fatal("head should fail after delete")
	}
}

func TestFilesystemStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestOpenFactoryDefaultsToFilesystem(t *testing.T) {
	t.Setenv("ALMANAC_BLOB_DRIVER", "")
	t.Setenv("ALMANAC_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("ALMANAC_BLOB_DRIVER", "memory")
	store, err = Open(context.Background())
	if err != nil || store.Driver() != DriverMemory {
		t.Fatalf("memory open = %v, %v", store, err)
	}

	t.Setenv("ALMANAC_BLOB_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
