package nodeutil

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/ground-x/blmessaging/log"
)

var s3Logger = log.New("nodeutil.s3tls")

// ResolveTLSMaterial rewrites path into a local filesystem path,
// downloading it from S3 first if it names an s3://bucket/key URI
// (SPEC_FULL.md's "TLS material from S3" domain-stack item). Any other
// path is returned unchanged: local PEM files remain the common case.
func ResolveTLSMaterial(path string) (string, error) {
	if !strings.HasPrefix(path, "s3://") {
		return path, nil
	}

	bucket, key, err := splitS3URI(path)
	if err != nil {
		return "", err
	}

	tmp, err := ioutil.TempFile("", "blmessaging-tls-")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	sess, err := session.NewSession()
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	downloader := s3manager.NewDownloader(sess)
	if _, err := downloader.Download(tmp, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	s3Logger.Info("resolved TLS material from S3", "uri", path, "localPath", tmp.Name())
	return tmp.Name(), nil
}

func splitS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &s3URIError{uri}
	}
	return parts[0], parts[1], nil
}

type s3URIError struct{ uri string }

func (e *s3URIError) Error() string { return "nodeutil: malformed s3 uri: " + e.uri }
