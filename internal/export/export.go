// Package export renders a report as an XLSX workbook: a Summary sheet with
// the headline metrics followed by one sheet per table the report carries.
package export

import (
	"fmt"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FilePrefix      = "farm-report-"
	SummarySheet    = "Summary"
	dateLayout      = "2006-01-02"
)

// FileName is the download name of a workbook exported on day now.
func FileName(now time.Time) string {
	return FilePrefix + now.Format(dateLayout) + ".xlsx"
}

type table struct {
	sheet  string
	header []string
	rows   [][]any
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func estimated(b bool) string {
	if b {
		return "estimated"
	}
	return ""
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// Workbook renders r. Sheets are only added for non-empty sections.
func Workbook(r *entity.Report, now time.Time) (*entity.ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("can't rename sheet: %w", err)
	}
	if err := writeTable(f, summaryTable(r)); err != nil {
		return nil, err
	}
	for _, t := range tables(r) {
		if len(t.rows) == 0 {
			continue
		}
		if _, err := f.NewSheet(t.sheet); err != nil {
			return nil, fmt.Errorf("can't add sheet %s: %w", t.sheet, err)
		}
		if err := writeTable(f, t); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("can't write workbook: %w", err)
	}
	return &entity.ExportFile{
		Name:        FileName(now),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func writeTable(f *excelize.File, t table) error {
	header := make([]any, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
		return fmt.Errorf("can't write %s header: %w", t.sheet, err)
	}
	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.sheet, cell, &row); err != nil {
			return fmt.Errorf("can't write %s row %d: %w", t.sheet, i+1, err)
		}
	}
	return nil
}

func summaryTable(r *entity.Report) table {
	s := r.Summary
	t := table{
		sheet:  SummarySheet,
		header: []string{"Metric", "Value"},
		rows: [][]any{
			{"Report type", string(r.Type)},
			{"Period", r.Period.From.Format(dateLayout) + " - " + r.Period.To.Format(dateLayout)},
			{"Generated at", r.GeneratedAt.Format(time.RFC3339)},
			{"Orders", s.Orders},
			{"Revenue", format.Money(s.Revenue)},
			{"Units sold", s.UnitsSold},
			{"Customers", s.Customers},
			{"Average order value", format.Money(s.AvgOrderValue)},
		},
	}
	if sel := r.Selection; entity.IsSet(sel.Category) || entity.IsSet(string(sel.CustomerType)) || entity.IsSet(sel.PaymentStatus) {
		t.rows = append(t.rows, []any{"Filter", fmt.Sprintf("category=%s customerType=%s paymentStatus=%s",
			sel.Category, sel.CustomerType, sel.PaymentStatus)})
	}
	if p := r.Profitability; p != nil {
		t.rows = append(t.rows,
			[]any{"Gross profit (estimated)", format.Money(p.GrossProfit)},
			[]any{"Gross margin (estimated)", format.Percent(p.GrossMarginPct)},
		)
	}
	if rt := r.Retention; rt != nil {
		t.rows = append(t.rows, []any{"Repeat customers", format.Percent(rt.RetentionPct)})
	}
	for _, n := range r.Notices {
		t.rows = append(t.rows, []any{"Notice: " + n.Source, n.Message})
	}
	return t
}

func tables(r *entity.Report) []table {
	ts := []table{
		{sheet: "Sales Trend", header: []string{"Day", "Orders", "Revenue"}},
		{sheet: "Categories", header: []string{"Category", "Units", "Revenue"}},
		{sheet: "Customer Types", header: []string{"Type", "Orders", "Customers", "Revenue"}},
		{sheet: "Top Products", header: []string{"Product", "Units", "Revenue", "Share %"}},
		{sheet: "Payment Methods", header: []string{"Method", "Orders", "Successful", "Revenue", "Success rate %"}},
		{sheet: "Payment Success", header: []string{"Class", "Orders", "Revenue", "Share %"}},
		{sheet: "Time Slots", header: []string{"Slot", "Hours", "Orders", "Successful", "Revenue"}},
		{sheet: "Products", header: []string{"Product", "Category", "Active", "Stock", "Units", "Revenue", "Views", "Conversion %", "Profit", ""}},
		{sheet: "Customers", header: []string{"Customer", "Email", "Orders", "Total spent", "AOV", "First purchase", "Last purchase", "Status"}},
		{sheet: "Segments", header: []string{"Segment", "Customers", "Revenue", "Share %"}},
		{sheet: "Cohorts", header: []string{"Month", "Customers", "Cumulative"}},
		{sheet: "AOV Trend", header: []string{"Period start", "Orders", "Revenue", "AOV"}},
		{sheet: "CLV", header: []string{"Customer", "Orders", "AOV", "Projected", ""}},
		{sheet: "Category Profit", header: []string{"Category", "Revenue", "COGS", "Gross profit", "Margin %", ""}},
		{sheet: "Seasonal", header: []string{"Month", "Season", "Orders", "Revenue", "AOV"}},
	}

	for _, p := range r.SalesTrend {
		ts[0].rows = append(ts[0].rows, []any{p.Day, p.Orders, money(p.Revenue)})
	}
	for _, c := range r.Categories {
		ts[1].rows = append(ts[1].rows, []any{c.Category, c.Units, money(c.Revenue)})
	}
	for _, c := range r.CustomerTypes {
		ts[2].rows = append(ts[2].rows, []any{string(c.Type), c.Orders, c.Customers, money(c.Revenue)})
	}
	for _, p := range r.TopProducts {
		ts[3].rows = append(ts[3].rows, []any{p.Name, p.Units, money(p.Revenue), p.SharePct})
	}
	for _, m := range r.PaymentMethods {
		ts[4].rows = append(ts[4].rows, []any{m.Method, m.Orders, m.Successful, money(m.Revenue), m.SuccessRate})
	}
	if ps := r.PaymentSuccess; ps != nil {
		for _, c := range ps.Classes {
			ts[5].rows = append(ts[5].rows, []any{string(c.Class), c.Orders, money(c.Revenue), c.SharePct})
		}
	}
	for _, s := range r.TimeSlots {
		ts[6].rows = append(ts[6].rows, []any{string(s.Slot), fmt.Sprintf("%02d-%02d", s.StartHour, s.EndHour), s.Orders, s.Successful, money(s.Revenue)})
	}
	for _, p := range r.Products {
		ts[7].rows = append(ts[7].rows, []any{p.Name, p.Category, p.Active, p.Stock, p.Units, money(p.Revenue), p.Views, p.ConversionPct, money(p.EstimatedProfit), estimated(p.Estimated)})
	}
	for _, l := range r.Lifetimes {
		ts[8].rows = append(ts[8].rows, []any{l.Name, l.Email, l.Orders, money(l.TotalSpent), money(l.AvgOrderValue), optionalDate(l.FirstPurchase), optionalDate(l.LastPurchase), string(l.Status)})
	}
	for _, s := range r.Segments {
		ts[9].rows = append(ts[9].rows, []any{string(s.Segment), s.Customers, money(s.Revenue), s.SharePct})
	}
	for _, c := range r.Cohorts {
		ts[10].rows = append(ts[10].rows, []any{c.Month, c.Customers, c.Cumulative})
	}
	for _, p := range r.AOVTrend {
		ts[11].rows = append(ts[11].rows, []any{p.Date.Format(dateLayout), p.Orders, money(p.Revenue), money(p.AvgOrderValue)})
	}
	if clv := r.CLV; clv != nil {
		for _, e := range clv.Top {
			ts[12].rows = append(ts[12].rows, []any{e.Name, e.Orders, money(e.AvgOrderValue), money(e.Projected), estimated(clv.Estimated)})
		}
	}
	for _, c := range r.CategoryProfit {
		ts[13].rows = append(ts[13].rows, []any{c.Category, money(c.Revenue), money(c.COGS), money(c.GrossProfit), c.MarginPct, estimated(c.Estimated)})
	}
	for _, p := range r.Seasonal {
		ts[14].rows = append(ts[14].rows, []any{p.Name, p.Season, p.Orders, money(p.Revenue), money(p.AvgOrderValue)})
	}
	return ts
}
