package bucket

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/minio/minio-go/v7"
)

const reportsFolder = "reports"

func (b *Bucket) constructFullPath(folder, fileName string) string {
	return path.Clean(path.Join(b.BaseFolder, folder, fileName))
}

func (b *Bucket) getCDNURL(filePath string) string {
	if b.SubdomainEndpoint != "" {
		return fmt.Sprintf("https://%s/%s", b.SubdomainEndpoint, filePath)
	}
	return fmt.Sprintf("https://%s.%s/%s", b.S3BucketName, b.S3Endpoint, filePath)
}

// UploadReport stores an exported report under <baseFolder>/reports and
// returns its public URL. Same day exports overwrite each other.
func (b *Bucket) UploadReport(ctx context.Context, f *entity.ExportFile) (string, error) {
	if f == nil || len(f.Data) == 0 {
		return "", fmt.Errorf("empty export file")
	}
	name := strings.TrimSpace(f.Name)
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("bad export file name: [%s]", f.Name)
	}
	fp := b.constructFullPath(reportsFolder, name)

	r := bytes.NewReader(f.Data)
	_, err := b.client.PutObject(ctx, b.S3BucketName, fp, r, int64(r.Len()), minio.PutObjectOptions{
		ContentType:        f.ContentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", name),
		CacheControl:       "no-cache",
		UserMetadata:       map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return "", fmt.Errorf("error putting object: %v", err)
	}
	return b.getCDNURL(fp), nil
}
