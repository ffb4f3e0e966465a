// Package report renders ledger aggregates as spreadsheets.
package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"csinventory/internal/service"
)

const (
	dailySheet   = "Daily flows"
	amountFormat = "#,##0.0000"
)

var dailyHeader = []string{"Day", "Total buy", "Total sell", "Net", "Trades"}

// DailyFlowsXLSX writes one row per day plus a totals row.
func DailyFlowsXLSX(rows []service.DailyFlow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dailySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	numFmt := amountFormat
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}

	for i, title := range dailyHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellStr(dailySheet, cell, title)
	}
	if err := f.SetCellStyle(dailySheet, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	totalBuy, totalSell := decimal.Zero, decimal.Zero
	var trades int64
	for i, r := range rows {
		line := i + 2
		if err := writeDailyRow(f, line, r.Day, r.TotalBuy, r.TotalSell, r.Net, r.TradeCount); err != nil {
			return nil, err
		}
		totalBuy = totalBuy.Add(r.TotalBuy)
		totalSell = totalSell.Add(r.TotalSell)
		trades += r.TradeCount
	}
	last := len(rows) + 2
	if err := writeDailyRow(f, last, "Total", totalBuy, totalSell, totalSell.Sub(totalBuy), trades); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(dailySheet, "B2", fmt.Sprintf("D%d", last), amountStyle); err != nil {
		return nil, fmt.Errorf("style amounts: %w", err)
	}
	_ = f.SetColWidth(dailySheet, "A", "A", 14)
	_ = f.SetColWidth(dailySheet, "B", "D", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeDailyRow(f *excelize.File, line int, label string, buy, sell, net decimal.Decimal, count int64) error {
	values := []any{label, buy.InexactFloat64(), sell.InexactFloat64(), net.InexactFloat64(), count}
	cell, _ := excelize.CoordinatesToCellName(1, line)
	if err := f.SetSheetRow(dailySheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", line, err)
	}
	return nil
}
