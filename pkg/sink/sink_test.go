package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
)

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		raw     string
		want    Destination
		wantErr bool
	}{
		{"", Destination{Scheme: SchemeStdout}, false},
		{"-", Destination{Scheme: SchemeStdout}, false},
		{"out/graph.json", Destination{Scheme: SchemeFile, Path: filepath.Clean("out/graph.json")}, false},
		{"file:///tmp/g.dot", Destination{Scheme: SchemeFile, Path: "/tmp/g.dot"}, false},
		{"s3://reports/shop/graph.json", Destination{Scheme: SchemeS3, Bucket: "reports", Key: "shop/graph.json"}, false},
		{"s3://reports", Destination{}, true},
		{"s3://reports/dir/", Destination{}, true},
		{"file://", Destination{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDestination(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDestination)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite_Stdout(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{Stdout: &buf}
	_, err := w.Write(context.Background(), Destination{Scheme: SchemeStdout}, []byte("{}"), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "{}", buf.String())
}

func TestWrite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "graph.json")
	w := &Writer{}
	got, err := w.Write(context.Background(), Destination{Scheme: SchemeFile, Path: path}, []byte(`{"a":1}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, path, got.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWrite_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.dot")
	payload := bytes.Repeat([]byte("digraph {}\n"), 64)
	w := &Writer{Compress: true}

	got, err := w.Write(context.Background(), Destination{Scheme: SchemeFile, Path: path}, payload, "text/vnd.graphviz")
	require.NoError(t, err)
	assert.Equal(t, path+CompressedExtension, got.Path)

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Less(t, len(data), len(payload))
	plain, err := Decompress(data)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)

	_, err = Decompress([]byte("not snappy"))
	assert.Error(t, err)
}

func TestWrite_S3(t *testing.T) {
	fake := &fakeS3{}
	reg := metrics.NewRegistry()
	w := &Writer{S3: fake, Compress: true, Metrics: reg}

	dest := Destination{Scheme: SchemeS3, Bucket: "reports", Key: "graph.json"}
	got, err := w.Write(context.Background(), dest, []byte(`{"nodes":[]}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/graph.json.sz", got.String())
	assert.Equal(t, "reports", fake.bucket)
	assert.Equal(t, "graph.json.sz", fake.key)
	assert.Equal(t, "application/x-snappy", fake.contentType)
	plain, err := Decompress(fake.body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[]}`, string(plain))

	fake.err = errors.New("access denied")
	_, err = w.Write(context.Background(), dest, []byte("{}"), "application/json")
	assert.ErrorContains(t, err, "access denied")

	assert.Equal(t, 1.0, sinkWrites(t, reg, SchemeS3, metrics.StatusOK))
	assert.Equal(t, 1.0, sinkWrites(t, reg, SchemeS3, metrics.StatusError))
}

func TestWrite_S3WithoutClient(t *testing.T) {
	w := &Writer{}
	_, err := w.Write(context.Background(), Destination{Scheme: SchemeS3, Bucket: "b", Key: "k"}, nil, "")
	assert.ErrorIs(t, err, ErrNoS3Client)
}

func TestS3OptionsFromEnv(t *testing.T) {
	t.Setenv(EnvS3Endpoint, "http://localhost:9000")
	t.Setenv(EnvS3Region, "eu-west-1")
	t.Setenv(EnvS3AccessKey, "minio")
	t.Setenv(EnvS3SecretKey, "secret")

	o := S3OptionsFromEnv()
	assert.Equal(t, "eu-west-1", o.Region)
	assert.Len(t, o.loadOptions(), 2)

	var so s3.Options
	o.clientOptions(&so)
	assert.Equal(t, "http://localhost:9000", aws.ToString(so.BaseEndpoint))
	assert.True(t, so.UsePathStyle)

	client, err := NewS3Client(context.Background(), o)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func sinkWrites(t *testing.T, reg *metrics.Registry, scheme, status string) float64 {
	t.Helper()
	c, err := reg.SinkWritesTotal.GetMetricWithLabelValues(scheme, status)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
