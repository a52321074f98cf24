// Package sink writes exported documents to stdout, a file or an S3
// object, optionally snappy-compressed.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
)

// Destination schemes.
const (
	SchemeStdout = "stdout"
	SchemeFile   = "file"
	SchemeS3     = "s3"
)

// CompressedExtension is appended to file and object names when output is
// compressed.
const CompressedExtension = ".sz"

var (
	ErrInvalidDestination = errors.New("invalid destination")
	ErrNoS3Client         = errors.New("s3 destination without an s3 client")
)

// Destination is a parsed output location.
type Destination struct {
	Scheme string
	// Path is set for file destinations.
	Path string
	// Bucket and Key are set for s3 destinations.
	Bucket string
	Key    string
}

func (d Destination) String() string {
	switch d.Scheme {
	case SchemeFile:
		return d.Path
	case SchemeS3:
		return "s3://" + d.Bucket + "/" + d.Key
	default:
		return "-"
	}
}

// ParseDestination accepts "" or "-" for stdout, s3://bucket/key, file://path
// or a plain path.
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "-":
		return Destination{Scheme: SchemeStdout}, nil
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Destination{}, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
			return Destination{}, fmt.Errorf("%w: %q needs a bucket and an object key", ErrInvalidDestination, raw)
		}
		return Destination{Scheme: SchemeS3, Bucket: u.Host, Key: key}, nil
	case strings.HasPrefix(raw, "file://"):
		path := strings.TrimPrefix(raw, "file://")
		if path == "" {
			return Destination{}, fmt.Errorf("%w: %q has no path", ErrInvalidDestination, raw)
		}
		return Destination{Scheme: SchemeFile, Path: filepath.Clean(path)}, nil
	default:
		return Destination{Scheme: SchemeFile, Path: filepath.Clean(raw)}, nil
	}
}

// PutObjectAPI is the part of *s3.Client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Writer delivers documents. The zero value writes uncompressed output to
// os.Stdout and refuses s3 destinations.
type Writer struct {
	Stdout   io.Writer
	S3       PutObjectAPI
	Compress bool
	Logger   logging.Logger
	Metrics  *metrics.Registry
}

// Write sends data to dest and returns where it went; compressed file and
// object names gain CompressedExtension.
func (w *Writer) Write(ctx context.Context, dest Destination, data []byte, contentType string) (Destination, error) {
	log := logging.OrNop(w.Logger).With(logging.Component("sink"), logging.String("scheme", dest.Scheme))
	if w.Compress {
		data = snappy.Encode(nil, data)
		contentType = "application/x-snappy"
		switch dest.Scheme {
		case SchemeFile:
			dest.Path = withExtension(dest.Path)
		case SchemeS3:
			dest.Key = withExtension(dest.Key)
		}
	}

	var err error
	switch dest.Scheme {
	case SchemeStdout:
		out := w.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, err = out.Write(data)
	case SchemeFile:
		err = writeFile(dest.Path, data)
	case SchemeS3:
		err = w.putObject(ctx, dest, data, contentType)
	default:
		err = fmt.Errorf("%w: unknown scheme %q", ErrInvalidDestination, dest.Scheme)
	}

	if err != nil {
		w.Metrics.RecordSinkWrite(dest.Scheme, metrics.StatusError)
		log.Error("write failed", logging.String("destination", dest.String()), logging.Error(err))
		return dest, err
	}
	w.Metrics.RecordSinkWrite(dest.Scheme, metrics.StatusOK)
	log.Debug("written", logging.String("destination", dest.String()), logging.Int("bytes", len(data)), logging.Bool("compressed", w.Compress))
	return dest, nil
}

func (w *Writer) putObject(ctx context.Context, dest Destination, data []byte, contentType string) error {
	if w.S3 == nil {
		return ErrNoS3Client
	}
	_, err := w.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(dest.Bucket),
		Key:           aws.String(dest.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", dest.Bucket, dest.Key, err)
	}
	return nil
}

// writeFile writes through a temporary file in the same directory and
// renames it into place.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func withExtension(name string) string {
	if strings.HasSuffix(name, CompressedExtension) {
		return name
	}
	return name + CompressedExtension
}

// Decompress reverses the compression Write applies.
func Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
