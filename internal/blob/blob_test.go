package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := MediaKey("idea1", "m1", "photo.png")
			if err := s.Put(ctx, key, []byte{1, 2, 3}, "image/png"); err != nil {
				t.Fatalf("Put: %v", err)
			}

			obj, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if obj == nil || string(obj.Body) != "\x01\x02\x03" || obj.ContentType != "image/png" {
				t.Fatalf("Get = %+v", obj)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if obj, err := s.Get(ctx, key); err != nil || obj != nil {
				t.Errorf("Get after delete = %+v, %v; want nil, nil", obj, err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Errorf("Delete of missing key: %v", err)
			}
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := DataKey("idea1")
			if err := PutJSON(ctx, s, key, map[string]any{"text": "hi", "n": 2}); err != nil {
				t.Fatalf("PutJSON: %v", err)
			}

			var got map[string]any
			ok, err := GetJSON(ctx, s, key, &got)
			if err != nil || !ok {
				t.Fatalf("GetJSON = %v, %v", ok, err)
			}
			if got["text"] != "hi" || got["n"] != float64(2) {
				t.Errorf("got %v", got)
			}

			ok, err = GetJSON(ctx, s, DataKey("missing"), &got)
			if err != nil || ok {
				t.Errorf("GetJSON(missing) = %v, %v; want false, nil", ok, err)
			}
		})
	}
}

func TestFSRejectsEscapingKeys(t *testing.T) {
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "../outside", []byte("x"), "text/plain"); err == nil {
		t.Error("expected error for key escaping the root")
	}
}

func TestKeys(t *testing.T) {
	if got := DataKey("abc"); got != "ideas/abc/data.json" {
		t.Errorf("DataKey = %q", got)
	}
	if got := MediaKey("abc", "m", "../x.png"); got != "ideas/abc/media/m_x.png" {
		t.Errorf("MediaKey = %q", got)
	}
}

func TestFSConcurrentPutsSameKey(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := DataKey("idea1")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := strings.Repeat(fmt.Sprintf("writer-%02d;", i), 500)
			errs <- s.Put(ctx, key, []byte(body), "application/json")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Put: %v", err)
		}
	}

	obj, err := s.Get(ctx, key)
	if err != nil || obj == nil {
		t.Fatalf("Get = %v, %v", obj, err)
	}
	first := string(obj.Body[:len("writer-00;")])
	if string(obj.Body) != strings.Repeat(first, 500) {
		t.Errorf("blob mixes writers: starts with %q, len %d", first, len(obj.Body))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "ideas", "idea1"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".blob-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
