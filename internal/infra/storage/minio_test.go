package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers just enough of the S3 API for bucket checks, puts and deletes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	buckets map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]

	if _, ok := r.URL.Query()["location"]; ok {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`))
		return
	}

	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.buckets[bucket] = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	key := parts[1]
	switch r.Method {
	case http.MethodPut:
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		f.objects[key] = []byte(buf.String())
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestStorePutRemove(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, buckets: map[string]bool{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	ctx := context.Background()
	store, err := New(ctx, endpoint, "us-east-1", "photos", "access", "secret", false)
	require.NoError(t, err)
	assert.True(t, fake.buckets["photos"])
	require.NoError(t, store.Check(ctx))

	url, err := store.Put(ctx, "photos/u1/p1.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/photos/photos/u1/p1.jpg", url)
	// body may arrive aws-chunked over plain http, so only the key is checked
	assert.Contains(t, fake.objects, "photos/u1/p1.jpg")

	require.NoError(t, store.Remove(ctx, "photos/u1/p1.jpg"))
	assert.NotContains(t, fake.objects, "photos/u1/p1.jpg")
}
