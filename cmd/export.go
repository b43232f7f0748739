package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/store"
)

var (
	exportOut    string
	exportTenant string
	exportCity   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tariff database to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		listings, err := st.ListTariffs(ctx, store.TariffFilter{
			TenantID: exportTenant,
			City:     exportCity,
			Limit:    10000,
		})
		if err != nil {
			return eris.Wrap(err, "list tariffs")
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Tariffs")
		if err != nil {
			return eris.Wrap(err, "add sheet")
		}

		header := sheet.AddRow()
		for _, col := range []string{
			"Hotel", "City", "Category", "Vendor", "Room Type", "Rate Plan",
			"Season", "Base Rate", "Tax %", "Service Fee", "Currency",
		} {
			header.AddCell().SetString(col)
		}

		for _, l := range listings {
			row := sheet.AddRow()
			row.AddCell().SetString(l.HotelName)
			row.AddCell().SetString(l.City)
			row.AddCell().SetString(l.Category)
			row.AddCell().SetString(l.Vendor)
			row.AddCell().SetString(l.RoomType)
			row.AddCell().SetString(l.RatePlan)
			row.AddCell().SetString(l.Season)
			row.AddCell().SetFloat(l.BaseRate)
			row.AddCell().SetFloat(l.TaxPercent)
			row.AddCell().SetFloat(l.ServiceFee)
			row.AddCell().SetString(l.Currency)
		}

		if err := file.Save(exportOut); err != nil {
			return eris.Wrapf(err, "save %s", exportOut)
		}
		zap.L().Info("export complete",
			zap.Int("tariffs", len(listings)),
			zap.String("file", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "tariffs.xlsx", "output spreadsheet path")
	exportCmd.Flags().StringVar(&exportTenant, "tenant", "", "tenant to export")
	exportCmd.Flags().StringVar(&exportCity, "city", "", "filter by city")
	rootCmd.AddCommand(exportCmd)
}
