package s3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/pkg/platform/blob/core"
	"travelkeep/pkg/platform/sentinel"
)

// fakeS3 serves the subset of the S3 REST API the store uses.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req.URL.Query().Get("prefix")), nil
	}
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, http.Header{}), nil
		}
		h := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
			"ETag":           {`"etag"`},
		}
		if req.Method == http.MethodHead {
			return respond(http.StatusOK, nil, h), nil
		}
		return respond(http.StatusOK, obj.body, h), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") || req.Header.Get("X-Amz-Decoded-Content-Length") != "" {
			body = decodeChunked(body)
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		return respond(http.StatusOK, nil, http.Header{"ETag": {`"etag"`}}), nil
	}
	return respond(http.StatusNotImplemented, nil, http.Header{}), nil
}

func (f *fakeS3) list(prefix string) *http.Response {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2026-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func respond(status int, body []byte, h http.Header) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: h, ContentLength: int64(len(body))}
}

// decodeChunked strips aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0\r\n<trailers>.
func decodeChunked(b []byte) []byte {
	r := bufio.NewReader(bytes.NewReader(b))
	var out []byte
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return out
		}
		sizeHex := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		n, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil || n == 0 {
			return out
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return out
		}
		out = append(out, chunk...)
		_, _ = r.ReadString('\n')
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(context.Background(), Config{
		Bucket:          "travelkeep",
		Endpoint:        "https://s3.test.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: &fakeS3{objects: map[string]fakeObject{}}},
	})
	require.NoError(t, err)
	return store
}

func TestStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	assert.Equal(t, core.DriverS3, store.Driver())

	_, err := store.Put(ctx, "audit_logs/2026/01/02/evt-1.json", strings.NewReader(`{"id":"evt-1"}`), core.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)

	data, err := core.ReadAll(ctx, store, "audit_logs/2026/01/02/evt-1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"evt-1"}`, string(data))

	list, err := store.List(ctx, "audit_logs/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "audit_logs/2026/01/02/evt-1.json", list[0].Key)
}

func TestStore_CreateOnlyAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Put(ctx, "k.json", strings.NewReader("1"), core.PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "k.json", strings.NewReader("2"), core.PutOptions{})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	_, _, err = store.Get(ctx, "nope.json")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
