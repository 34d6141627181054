package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reporterMock struct {
	mock.Mock
}

func (m *reporterMock) Compute(ctx context.Context, req entity.ReportRequest) (*entity.Report, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*entity.Report)
	return r, args.Error(1)
}

type mailerMock struct {
	mock.Mock
}

func (m *mailerMock) SendReport(ctx context.Context, to []string, subject, html string, attachment *entity.ExportFile) error {
	return m.Called(ctx, to, subject, html, attachment).Error(0)
}

func (m *mailerMock) RenderDigest(r *entity.Report) (string, string, error) {
	args := m.Called(r)
	return args.String(0), args.String(1), args.Error(2)
}

type filesMock struct {
	mock.Mock
}

func (m *filesMock) UploadReport(ctx context.Context, f *entity.ExportFile) (string, error) {
	args := m.Called(ctx, f)
	return args.String(0), args.Error(1)
}

func TestPreviousDay(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 1, 30, 0, 0, riga)
	p := previousDay(now, riga)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, riga), p.From)
	assert.Equal(t, time.Date(2024, 3, 9, 23, 59, 59, 999999999, riga), p.To)
}

func TestNewValidates(t *testing.T) {
	_, err := New(&Config{Recipients: []string{"not-an-email"}}, nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(&Config{ReportType: "inventory"}, nil, nil, nil, nil)
	assert.Error(t, err)

	w, err := New(&Config{Recipients: []string{"owner@farm.shop"}}, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, w.c.WorkerInterval)
	assert.Equal(t, "sales", w.c.ReportType)
	assert.True(t, w.c.Enabled())
}

func TestSendDigest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	report := &entity.Report{
		Type:    entity.ReportTypeSales,
		Summary: entity.Summary{Orders: 4, Revenue: decimal.NewFromInt(200)},
	}

	rm := &reporterMock{}
	rm.On("Compute", ctx, mock.MatchedBy(func(req entity.ReportRequest) bool {
		return req.Type == entity.ReportTypeSales &&
			req.Period.From.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	})).Return(report, nil).Once()

	mm := &mailerMock{}
	mm.On("RenderDigest", report).Return("subject", "<p>body</p>", nil).Once()
	mm.On("SendReport", ctx, []string{"owner@farm.shop"}, "subject", "<p>body</p>",
		mock.MatchedBy(func(f *entity.ExportFile) bool {
			return f.Name == "farm-report-2024-03-10.xlsx" && len(f.Data) > 0
		}),
	).Return(nil).Once()

	fm := &filesMock{}
	fm.On("UploadReport", ctx, mock.Anything).Return("", errors.New("denied")).Once()

	w, err := New(&Config{Recipients: []string{"owner@farm.shop"}, Upload: true}, rm, mm, fm, time.UTC)
	require.NoError(t, err)
	w.now = func() time.Time { return now }

	require.NoError(t, w.sendDigest(ctx))
	rm.AssertExpectations(t)
	mm.AssertExpectations(t)
	fm.AssertExpectations(t)
}

func TestSendDigestComputeError(t *testing.T) {
	ctx := context.Background()
	rm := &reporterMock{}
	rm.On("Compute", ctx, mock.Anything).Return(nil, errors.New("boom")).Once()
	mm := &mailerMock{}

	w, err := New(&Config{Recipients: []string{"owner@farm.shop"}}, rm, mm, nil, time.UTC)
	require.NoError(t, err)
	assert.ErrorContains(t, w.sendDigest(ctx), "boom")
	mm.AssertNotCalled(t, "SendReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStartStop(t *testing.T) {
	w, err := New(&Config{WorkerInterval: time.Hour}, &reporterMock{}, &mailerMock{}, nil, time.UTC)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop())
}
