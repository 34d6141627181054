package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
)

const ReportDigest = "report_digest.gohtml"

var templateFuncs = template.FuncMap{
	"money":   format.Money,
	"percent": format.Percent,
	"date":    func(t time.Time) string { return t.Format("2006-01-02") },
}

// RenderDigest renders the digest mail of r.
func (m *Mailer) RenderDigest(r *entity.Report) (subject, html string, err error) {
	if r == nil {
		return "", "", fmt.Errorf("nil report")
	}
	body := &strings.Builder{}
	if err := m.templates.ExecuteTemplate(body, ReportDigest, r); err != nil {
		return "", "", fmt.Errorf("error executing template: %w", err)
	}
	subject = fmt.Sprintf("Farm %s report %s", r.Type, r.Period.From.Format("2006-01-02"))
	if to := r.Period.To.Format("2006-01-02"); to != r.Period.From.Format("2006-01-02") {
		subject += " - " + to
	}
	return subject, body.String(), nil
}
