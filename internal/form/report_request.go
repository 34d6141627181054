package form

import (
	"errors"
	"strings"
	"time"

	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
)

const dateLayout = "2006-01-02"

var granularities = map[string]entity.MetricsGranularity{
	"":      entity.MetricsGranularityDay,
	"day":   entity.MetricsGranularityDay,
	"week":  entity.MetricsGranularityWeek,
	"month": entity.MetricsGranularityMonth,
}

// ReportRequest is the body of a report generation call. From and To are
// either dates ("2006-01-02") or RFC 3339 timestamps; a date in To covers
// the whole day.
type ReportRequest struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	CustomerType  string `json:"customerType"`
	PaymentStatus string `json:"paymentStatus"`
	Granularity   string `json:"granularity"`
	TopN          int    `json:"topN"`
	Timezone      string `json:"timezone"`
}

func (f *ReportRequest) Validate() error {
	return ValidateStruct(f,
		v.Field(&f.From, v.Required, v.By(validTime)),
		v.Field(&f.To, v.Required, v.By(validTime)),
		v.Field(&f.Type, v.Required, v.By(validReportType)),
		v.Field(&f.Category, v.Length(0, 100)),
		v.Field(&f.CustomerType, v.By(lowerIn(string(entity.CustomerTypeAll), string(entity.CustomerTypeBulk), string(entity.CustomerTypeRegular)))),
		v.Field(&f.PaymentStatus, v.Length(0, 50)),
		v.Field(&f.Granularity, v.By(lowerIn("day", "week", "month"))),
		v.Field(&f.TopN, v.Min(0), v.Max(100)),
		v.Field(&f.Timezone, v.By(validTimezone)),
	)
}

func validTime(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := parseTime(s, time.UTC); err != nil {
		return errors.New("must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	return nil
}

func validReportType(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := entity.ParseReportType(s); !ok {
		return errors.New("must be one of sales, payment, product, customer")
	}
	return nil
}

func validTimezone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return errors.New("must be an IANA time zone")
	}
	return nil
}

func lowerIn(allowed ...string) v.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return errors.New("must be one of " + strings.Join(allowed, ", "))
	}
}

// parseTime parses s in loc. dateOnly is true for the YYYY-MM-DD form.
func parseTime(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	return t, false, err
}

// ToEntity converts a validated form. Dates are interpreted in the request
// time zone, falling back to loc.
func (f *ReportRequest) ToEntity(loc *time.Location) (entity.ReportRequest, error) {
	if f.Timezone != "" {
		l, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return entity.ReportRequest{}, err
		}
		loc = l
	}
	if loc == nil {
		loc = time.Local
	}

	from, _, err := parseTime(f.From, loc)
	if err != nil {
		return entity.ReportRequest{}, err
	}
	to, dateOnly, err := parseTime(f.To, loc)
	if err != nil {
		return entity.ReportRequest{}, err
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	rt, _ := entity.ParseReportType(f.Type)
	return entity.ReportRequest{
		Period: entity.TimeRange{From: from, To: to},
		Type:   rt,
		Selection: entity.Selection{
			Category:      strings.TrimSpace(f.Category),
			CustomerType:  entity.CustomerType(strings.ToLower(strings.TrimSpace(f.CustomerType))),
			PaymentStatus: strings.TrimSpace(f.PaymentStatus),
		},
		Granularity: granularities[strings.ToLower(strings.TrimSpace(f.Granularity))],
		TopN:        f.TopN,
		Location:    loc,
	}, nil
}
