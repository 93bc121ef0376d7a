package s3

import (
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// NewBasicClient creates a client for bucket using the default AWS credential chain.
// An error is returned if the AWS session cannot be created.
func NewBasicClient(bucket, region, prefix string) (BasicClient, error) {
	awsConfig := aws.NewConfig()
	awsConfig.Region = aws.String(region)
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return NewBasicClientWithAPI(bucket, region, prefix, s3.New(sess)), nil
}

func NewBasicClientWithAPI(bucket, region, prefix string, api s3iface.S3API) BasicClient {
	return &basicClient{
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
		api:    api,
	}
}

type basicClient struct {
	region string
	bucket string
	prefix string
	api    s3iface.S3API
}

// List returns the keys that start with key, relative to the client prefix.
func (s *basicClient) List(key string) (keys []string, err error) {
	keys = make([]string, 0, 1000)
	lastKey := ""
	for {
		params := &s3.ListObjectsInput{
			Bucket:  aws.String(s.bucket),
			Marker:  aws.String(lastKey),
			MaxKeys: aws.Int64(1000),
			Prefix:  aws.String(s.getKeyWithPrefix(key)),
		}
		resp, err := s.api.ListObjects(params)
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Contents {
			lastKey = aws.StringValue(v.Key)
			keys = append(keys, s.trimPrefix(lastKey))
		}
		if !aws.BoolValue(resp.IsTruncated) || len(resp.Contents) == 0 {
			break
		}
	}
	return
}

func (s *basicClient) BufferPut(key string, dataBuf io.ReadSeeker) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   dataBuf,
	})

	return err
}

func (s *basicClient) Delete(key string) error {
	_, err := s.api.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) trimPrefix(key string) string {
	if s.prefix != "" {
		return strings.TrimPrefix(key, s.prefix+"/")
	}
	return key
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.prefix != "" {
		return s.prefix + "/" + key
	}
	return key
}
