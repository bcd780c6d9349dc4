package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider keeps documents in an AWS S3 bucket; folders are key prefixes.
type S3Provider struct {
	client     *s3.Client
	bucketName string
	region     string
}

// NewS3Provider creates a new AWS S3 provider
func NewS3Provider(accessKeyID, secretAccessKey, region, bucketName string) (*S3Provider, error) {
	ctx := context.Background()

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Provider{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		region:     region,
	}, nil
}

func folderPrefix(folder string) string {
	key := cleanKey(folder)
	if key == "" {
		return ""
	}
	return key + "/"
}

// List returns the objects directly under the folder prefix.
func (p *S3Provider) List(ctx context.Context, folder string) ([]Object, error) {
	prefix := folderPrefix(folder)

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucketName),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			o := Object{
				Path: key,
				Name: path.Base(key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				o.ModTime = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}
	return objects, nil
}

// Read downloads an object.
func (p *S3Provider) Read(ctx context.Context, key string) ([]byte, error) {
	cleaned := cleanKey(key)

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	return data, nil
}

// Move copies the object under destFolder and deletes the original.
func (p *S3Provider) Move(ctx context.Context, key, destFolder string) (string, error) {
	src := cleanKey(key)
	dest := folderPrefix(destFolder) + path.Base(src)

	_, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucketName),
		CopySource: aws.String(url.PathEscape(p.bucketName + "/" + src)),
		Key:        aws.String(dest),
	})
	if err != nil {
		return "", fmt.Errorf("failed to copy S3 object: %w", err)
	}

	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(src),
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete S3 object: %w", err)
	}
	return dest, nil
}

// GetProviderName returns the provider name
func (p *S3Provider) GetProviderName() string {
	return "AWS S3"
}
