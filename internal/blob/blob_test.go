package blob

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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Put and Get
	_, err := s.Put(ctx, "run1/rprof_rho.csv", strings.NewReader("a,b\n1,2\n"), PutOptions{ContentType: "text/csv", Metadata: map[string]string{"batch": "b1"}})
	require.NoError(t, err)
	info, rc, err := s.Get(ctx, "run1/rprof_rho.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(body))
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "text/csv", info.ContentType)

	// Put replaces
	_, err = s.Put(ctx, "run1/rprof_rho.csv", strings.NewReader("x"), PutOptions{})
	require.NoError(t, err)
	head, err := s.Head(ctx, "run1/rprof_rho.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(1), head.Size)

	// List by prefix
	_, err = s.Put(ctx, "run1/tseries_ekin.csv", strings.NewReader("y"), PutOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "run2/tseries_ekin.csv", strings.NewReader("z"), PutOptions{})
	require.NoError(t, err)
	list, err := s.List(ctx, "run1/")
	require.NoError(t, err)
	keys := make([]string, len(list))
	for i, inf := range list {
		keys[i] = inf.Key
	}
	assert.Equal(t, []string{"run1/rprof_rho.csv", "run1/tseries_ekin.csv"}, keys)

	// Delete and not found
	ok, err := s.Delete(ctx, "run2/tseries_ekin.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "run2/tseries_ekin.csv")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, err = s.Get(ctx, "run2/tseries_ekin.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Head(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystem(t *testing.T) {
	t.Parallel()

	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	exerciseStore(t, s)

	_, err = s.Put(context.Background(), "../escape", strings.NewReader(""), PutOptions{})
	assert.Error(t, err)
	info, err := s.Head(context.Background(), "run1/tseries_ekin.csv")
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	assert.False(t, info.LastModified.IsZero())
}

func TestMemory(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	exerciseStore(t, s)

	_, err := s.Put(context.Background(), "m", strings.NewReader("v"), PutOptions{Metadata: map[string]string{"batch": "b2"}})
	require.NoError(t, err)
	info, err := s.Head(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"batch": "b2"}, info.Metadata)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fs, err := Open(ctx, Config{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, fs.Driver())

	mem, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, mem.Driver())

	_, err = Open(ctx, Config{Driver: DriverS3})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Driver: "ftp"})
	assert.Error(t, err)
}

// fakeS3 is a path-style in-memory S3 endpoint.
type fakeS3 struct {
	mu   sync.Mutex
	objs map[string]fakeObj
}

type fakeObj struct {
	body        []byte
	contentType string
	meta        http.Header
}

func respond(code int, body []byte, h http.Header) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(body)), Header: h, ContentLength: int64(len(body))}
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
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objs {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objs[k].body))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}}), nil
	}
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeChunked(body)
		}
		meta := http.Header{}
		for k, v := range req.Header {
			if strings.HasPrefix(strings.ToLower(k), "x-amz-meta-") {
				meta[k] = v
			}
		}
		f.objs[key] = fakeObj{body: body, contentType: req.Header.Get("Content-Type"), meta: meta}
		return respond(http.StatusOK, nil, http.Header{"Etag": {`"etag"`}}), nil
	case http.MethodGet, http.MethodHead:
		obj, ok := f.objs[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		h := obj.meta.Clone()
		h.Set("Content-Type", obj.contentType)
		h.Set("Content-Length", strconv.Itoa(len(obj.body)))
		h.Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		if req.Method == http.MethodHead {
			resp := respond(http.StatusOK, nil, h)
			resp.ContentLength = int64(len(obj.body))
			return resp, nil
		}
		return respond(http.StatusOK, obj.body, h), nil
	case http.MethodDelete:
		delete(f.objs, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

// decodeChunked strips aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0.
func decodeChunked(b []byte) []byte {
	r := bufio.NewReader(bytes.NewReader(b))
	var out []byte
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return out
		}
		size, err := strconv.ParseInt(strings.TrimSpace(strings.SplitN(line, ";", 2)[0]), 16, 64)
		if err != nil || size == 0 {
			return out
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return out
		}
		out = append(out, chunk...)
		_, _ = r.ReadString('\n')
	}
}

func newFakeS3(t *testing.T) *S3 {
	t.Helper()
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: &fakeS3{objs: map[string]fakeObj{}}}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://fake.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &S3{client: client, bucket: "exports"}
}

func TestS3(t *testing.T) {
	t.Parallel()

	s := newFakeS3(t)

	exerciseStore(t, s)
	assert.Equal(t, DriverS3, s.Driver())
}
