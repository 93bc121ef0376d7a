package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/relloyd/bronze/constants"
)

// AwsS3Bucket is the destination for bronze files that are copied to S3.
type AwsS3Bucket struct {
	Name   string `json:"name" yaml:"name" errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" errorTxt:"bucket prefix"`
	Region string `json:"region" yaml:"region" errorTxt:"bucket region" mandatory:"yes"`
}

func (d AwsS3Bucket) GetScheme() string {
	return constants.ConnectionTypeS3
}

// URL renders the bucket and prefix as s3://<bucket>/<prefix>.
func (d AwsS3Bucket) URL() string {
	if d.Prefix == "" {
		return fmt.Sprintf("%v://%v", d.GetScheme(), d.Name)
	}
	return fmt.Sprintf("%v://%v/%v", d.GetScheme(), d.Name, d.Prefix)
}

// ParseDSN expects bucketPrefix to be of the form [s3://]<bucket>/<prefix>
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// If there is a parsing error it returns an error.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := constants.ConnectionTypeS3
	if !strings.Contains(bucketPrefix, "://") {
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}
