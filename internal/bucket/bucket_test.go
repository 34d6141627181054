package bucket

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type putterMock struct {
	mock.Mock
}

func (m *putterMock) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func testConfig() *Config {
	return &Config{
		S3Endpoint:   "fra1.digitaloceanspaces.com",
		S3BucketName: "farm",
		BaseFolder:   "farm-shop",
	}
}

func TestUploadReport(t *testing.T) {
	pm := &putterMock{}
	b := &Bucket{client: pm, Config: testConfig()}
	f := &entity.ExportFile{Name: "farm-report-2024-03-09.xlsx", ContentType: "application/xlsx", Data: []byte("xlsx")}

	pm.On("PutObject", mock.Anything, "farm", "farm-shop/reports/farm-report-2024-03-09.xlsx", mock.Anything, int64(4),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/xlsx" && o.UserMetadata["x-amz-acl"] == "public-read"
		}),
	).Return(minio.UploadInfo{}, nil).Once()

	url, err := b.UploadReport(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "https://farm.fra1.digitaloceanspaces.com/farm-shop/reports/farm-report-2024-03-09.xlsx", url)
	pm.AssertExpectations(t)
}

func TestUploadReportSubdomain(t *testing.T) {
	pm := &putterMock{}
	c := testConfig()
	c.SubdomainEndpoint = "files.farm.shop"
	b := &Bucket{client: pm, Config: c}
	pm.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()

	url, err := b.UploadReport(context.Background(), &entity.ExportFile{Name: "r.xlsx", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "https://files.farm.shop/farm-shop/reports/r.xlsx", url)
}

func TestUploadReportErrors(t *testing.T) {
	pm := &putterMock{}
	b := &Bucket{client: pm, Config: testConfig()}

	_, err := b.UploadReport(context.Background(), &entity.ExportFile{Name: "r.xlsx"})
	assert.Error(t, err)
	_, err = b.UploadReport(context.Background(), &entity.ExportFile{Name: "../r.xlsx", Data: []byte{1}})
	assert.Error(t, err)

	pm.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("denied")).Once()
	_, err = b.UploadReport(context.Background(), &entity.ExportFile{Name: "r.xlsx", Data: []byte{1}})
	assert.ErrorContains(t, err, "denied")
}

func TestEnabled(t *testing.T) {
	assert.True(t, testConfig().Enabled())
	assert.False(t, (&Config{}).Enabled())
}
