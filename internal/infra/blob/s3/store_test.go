package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"workcore/internal/blob/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// fakeAPI is an in-memory bucket that pages listings two keys at a time.
type fakeAPI struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	failPut error
}

func newFakeAPI() *fakeAPI { return &fakeAPI{objects: make(map[string]fakeObject)} }

func (f *fakeAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	now := time.Now().UTC()
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(`"etag"`),
		Metadata:      obj.metadata,
		LastModified:  &now,
	}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.body)),
		ContentLength: aws.Int64(int64(len(obj.body))),
		ContentType:   aws.String(obj.contentType),
	}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{body: body, contentType: aws.ToString(in.ContentType), metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	start := 0
	if in.ContinuationToken != nil {
		_, _ = fmt.Sscanf(*in.ContinuationToken, "%d", &start)
	}
	end := start + 2
	if end > len(keys) {
		end = len(keys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k].body)))})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(fmt.Sprint(end))
	}
	return out, nil
}

func TestS3StoreLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewWithAPI(api, "bucket")
	if s.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver")
	}
	info, err := s.Put(ctx, "audit/1.jsonl", strings.NewReader("abc"), core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"a": "b"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ETag != "etag" || info.Metadata["a"] != "b" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "audit/1.jsonl", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, "audit/1.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "abc" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := s.Delete(ctx, "audit/1.jsonl"); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "audit/1.jsonl"); ok || err != nil {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestS3StoreListPagesAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewWithAPI(newFakeAPI(), "bucket")
	for _, key := range []string{"p/c", "p/a", "p/b", "q/z", "p/d"} {
		if _, err := s.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := s.List(ctx, "p/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var keys []string
	for _, info := range list {
		keys = append(keys, info.Key)
	}
	if strings.Join(keys, ",") != "p/a,p/b,p/c,p/d" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestS3StorePutFailure(t *testing.T) {
	api := newFakeAPI()
	api.failPut = errors.New("denied")
	s := NewWithAPI(api, "bucket")
	if _, err := s.Put(context.Background(), "k", strings.NewReader("v"), core.PutOptions{}); err == nil || errors.Is(err, core.ErrExists) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{Bucket: "b", AccessKeyID: "AKIA", SecretAccessKey: "secret", Endpoint: "http://localhost:9000", PathStyle: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.bucket != "b" {
		t.Fatalf("unexpected bucket %s", s.bucket)
	}
}
