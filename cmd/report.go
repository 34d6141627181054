package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jekabolt/farmgoods-reports/app"
	"github.com/jekabolt/farmgoods-reports/config"
	"github.com/jekabolt/farmgoods-reports/internal/export"
	"github.com/jekabolt/farmgoods-reports/internal/form"
	"github.com/jekabolt/farmgoods-reports/log"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var (
		f   form.ReportRequest
		out string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute a report once and print it",
		Example: "  reportsrv report --from 2024-03-01 --to 2024-03-07 --type sales\n" +
			"  reportsrv report --from 2024-03-01 --to 2024-03-31 --type product --out march.xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("cannot load a config %v", err.Error())
			}
			// stdout carries the report
			slog.SetDefault(log.New(cfg.Logger, os.Stderr))

			if err := f.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc, release, err := app.Reports(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			req, err := f.ToEntity(svc.Location())
			if err != nil {
				return err
			}
			r, err := svc.Compute(ctx, req)
			if err != nil {
				return fmt.Errorf("can't compute report: %w", err)
			}

			if out != "" {
				file, err := export.Workbook(r, time.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, file.Data, 0o644); err != nil {
					return fmt.Errorf("can't write %s: %w", out, err)
				}
				slog.Default().Info("report exported", slog.String("file", out))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.From, "from", "", "period start, YYYY-MM-DD or RFC 3339")
	fl.StringVar(&f.To, "to", "", "period end, YYYY-MM-DD or RFC 3339")
	fl.StringVar(&f.Type, "type", "sales", "report type: sales, payment, product, customer")
	fl.StringVar(&f.Category, "category", "", "product category selection")
	fl.StringVar(&f.CustomerType, "customer-type", "", "customer type selection: all, bulk, regular")
	fl.StringVar(&f.PaymentStatus, "payment-status", "", "payment status selection")
	fl.StringVar(&f.Granularity, "granularity", "", "trend granularity: day, week, month")
	fl.IntVar(&f.TopN, "top-n", 0, "length of top lists")
	fl.StringVar(&f.Timezone, "timezone", "", "IANA zone of the dates")
	fl.StringVarP(&out, "out", "o", "", "write the workbook to this file")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
