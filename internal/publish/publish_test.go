package publish

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/toyreact/internal/config"
	"github.com/vango-dev/toyreact/internal/demo"
	"github.com/vango-dev/toyreact/internal/errors"
)

type putCall struct {
	bucket, key, contentType, body string
	metadata                       map[string]string
}

// fakeClient records uploads and serves listings in pages of two.
type fakeClient struct {
	puts    []putCall
	putErr  error
	objects []types.Object
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		body:        string(body),
		metadata:    in.Metadata,
	})
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func (f *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var matching []types.Object
	for _, o := range f.objects {
		if strings.HasPrefix(aws.ToString(o.Key), aws.ToString(in.Prefix)) {
			matching = append(matching, o)
		}
	}
	start := 0
	if in.ContinuationToken != nil {
		for i, o := range matching {
			if aws.ToString(o.Key) == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := min(start+2, len(matching))
	out := &s3.ListObjectsV2Output{Contents: matching[start:end]}
	if end < len(matching) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = matching[end].Key
	}
	return out, nil
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(&fakeClient{}, ""); !errors.HasCode(err, "E702") {
		t.Errorf("New() error = %v, want E702", err)
	}
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	p, err := New(client, "snaps", WithPrefix("/previews/"))
	if err != nil {
		t.Fatal(err)
	}
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := p.Publish(context.Background(), "counter.html", []byte("<p>hi</p>"))
	if err != nil {
		t.Fatal(err)
	}

	want := Result{Bucket: "snaps", Key: "previews/counter.html", ETag: "abc123", Size: 9}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	wantPut := []putCall{{
		bucket:      "snaps",
		key:         "previews/counter.html",
		contentType: "text/html; charset=utf-8",
		body:        "<p>hi</p>",
		metadata:    map[string]string{"rendered-at": "2026-01-02T03:04:05Z"},
	}}
	if diff := cmp.Diff(wantPut, client.puts, cmp.AllowUnexported(putCall{})); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishErrors(t *testing.T) {
	client := &fakeClient{putErr: io.ErrUnexpectedEOF}
	p, _ := New(client, "snaps")

	_, err := p.Publish(context.Background(), "x.html", nil)
	if !errors.HasCode(err, "E701") {
		t.Errorf("Publish() error = %v, want E701", err)
	}
	if !strings.Contains(err.Error(), "s3://snaps/x.html") {
		t.Errorf("error should name the object: %v", err)
	}

	if _, err := p.Publish(context.Background(), "", nil); !errors.HasCode(err, "E701") {
		t.Errorf("empty name error = %v, want E701", err)
	}
}

func TestList(t *testing.T) {
	client := &fakeClient{}
	for _, k := range []string{"other/a.html", "previews/a.html", "previews/b.html", "previews/c.html"} {
		client.objects = append(client.objects, types.Object{Key: aws.String(k), Size: aws.Int64(10)})
	}
	p, _ := New(client, "snaps", WithPrefix("previews"))

	objects, err := p.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	if diff := cmp.Diff([]string{"previews/a.html", "previews/b.html", "previews/c.html"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestPage(t *testing.T) {
	doc, err := demo.Render("counter")
	if err != nil {
		t.Fatal(err)
	}
	page := string(Page(doc, "counter"))

	if !strings.HasPrefix(page, "<!DOCTYPE html><html><head><title>counter</title></head><body>") {
		t.Errorf("unexpected page start: %s", page)
	}
	if !strings.Contains(page, `<span class="count">0</span>`) {
		t.Errorf("page missing rendered app: %s", page)
	}
}

// isolateAWS points the AWS configuration chain at empty files so tests see
// only the environment they set.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestNewS3Client(t *testing.T) {
	isolateAWS(t)
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	c, err := NewS3Client(context.Background(), config.PublishConfig{Endpoint: "http://localhost:9000"})
	if err != nil {
		t.Fatal(err)
	}
	opts := c.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("endpoint options = %q, %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestNewS3ClientRegionOverride(t *testing.T) {
	isolateAWS(t)
	t.Setenv("AWS_REGION", "eu-west-1")

	c, err := NewS3Client(context.Background(), config.PublishConfig{Region: "us-east-2"})
	if err != nil {
		t.Fatal(err)
	}
	opts := c.Options()
	if opts.Region != "us-east-2" {
		t.Errorf("Region = %q, want us-east-2", opts.Region)
	}
	if opts.BaseEndpoint != nil || opts.UsePathStyle {
		t.Errorf("endpoint options set without an endpoint: %v, %v", opts.BaseEndpoint, opts.UsePathStyle)
	}
}
