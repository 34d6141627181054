package form

import (
	"errors"
	"testing"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRequestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := &ReportRequest{From: "2024-03-01", To: "2024-03-07T10:00:00Z", Type: "Sales", CustomerType: "BULK", Granularity: "week"}
		assert.NoError(t, f.Validate())
	})

	t.Run("missing fields", func(t *testing.T) {
		err := (&ReportRequest{}).Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, gerr.ErrInvalidRequest))

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Len(t, ve.Violations, 3)
		assert.Equal(t, "From: cannot be blank.", ve.Violations[0])
	})

	t.Run("bad values", func(t *testing.T) {
		f := &ReportRequest{
			From:         "yesterday",
			To:           "2024-03-07",
			Type:         "inventory",
			CustomerType: "wholesale",
			Granularity:  "hour",
			TopN:         500,
			Timezone:     "Mars/Olympus",
		}
		var ve *ValidationError
		require.ErrorAs(t, f.Validate(), &ve)
		assert.Len(t, ve.Violations, 6)
	})
}

func TestReportRequestToEntity(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)

	f := &ReportRequest{
		From:          "2024-03-01",
		To:            "2024-03-07",
		Type:          "payment",
		PaymentStatus: " Paid ",
		CustomerType:  "Regular",
		Granularity:   "month",
		TopN:          5,
	}
	req, err := f.ToEntity(riga)
	require.NoError(t, err)

	assert.Equal(t, entity.ReportTypePayment, req.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, riga), req.Period.From)
	assert.Equal(t, time.Date(2024, 3, 7, 23, 59, 59, 999999999, riga), req.Period.To)
	assert.Equal(t, "Paid", req.Selection.PaymentStatus)
	assert.Equal(t, entity.CustomerTypeRegular, req.Selection.CustomerType)
	assert.Equal(t, entity.MetricsGranularityMonth, req.Granularity)
	assert.Equal(t, 5, req.TopN)
	assert.Equal(t, riga, req.Location)

	f.Timezone = "UTC"
	f.To = "2024-03-07T12:00:00Z"
	req, err = f.ToEntity(riga)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, req.Location)
	assert.True(t, req.Period.To.Equal(time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)))
}
