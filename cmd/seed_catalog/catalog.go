package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
)

// catalogRow una fila del catálogo del distribuidor.
type catalogRow struct {
	Line     int
	Supplier string
	Category string
	Product  dto.CreateProductRequest
}

// columnas reconocidas en la cabecera; sku y name son obligatorias.
var knownColumns = []string{
	"sku", "name", "kind", "description", "category", "supplier",
	"price_buy", "price_sell", "stock_minimo", "initial_stock",
}

// readCatalog lee el CSV. Con latin1 decodifica ISO-8859-1 (exportaciones de Excel en español).
// Las filas con errores se reportan en errs sin detener la lectura.
func readCatalog(r io.Reader, sep rune, latin1 bool) (rows []catalogRow, errs []error, err error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"sku", "name"} {
		if _, ok := idx[required]; !ok {
			return nil, nil, fmt.Errorf("falta la columna %q (columnas: %s)", required, strings.Join(knownColumns, ", "))
		}
	}

	line := 1
	for {
		record, rErr := cr.Read()
		if errors.Is(rErr, io.EOF) {
			break
		}
		line++
		if rErr != nil {
			errs = append(errs, fmt.Errorf("línea %d: %w", line, rErr))
			continue
		}
		row, pErr := parseRow(record, idx)
		if pErr != nil {
			errs = append(errs, fmt.Errorf("línea %d: %w", line, pErr))
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, errs, nil
}

func parseRow(record []string, idx map[string]int) (catalogRow, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := catalogRow{
		Supplier: get("supplier"),
		Category: get("category"),
		Product: dto.CreateProductRequest{
			SKU:         get("sku"),
			Name:        get("name"),
			Kind:        strings.ToLower(get("kind")),
			Description: get("description"),
		},
	}
	if row.Product.SKU == "" || row.Product.Name == "" {
		return row, errors.New("sku y name son requeridos")
	}

	var err error
	if row.Product.PriceBuy, err = parseMoney(get("price_buy")); err != nil {
		return row, fmt.Errorf("price_buy: %w", err)
	}
	if row.Product.PriceSell, err = parseMoney(get("price_sell")); err != nil {
		return row, fmt.Errorf("price_sell: %w", err)
	}
	if v := get("stock_minimo"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return row, fmt.Errorf("stock_minimo: %w", err)
		}
		row.Product.StockMinimo = &n
	}
	if v := get("initial_stock"); v != "" {
		if row.Product.InitialStock, err = strconv.Atoi(v); err != nil {
			return row, fmt.Errorf("initial_stock: %w", err)
		}
	}
	return row, nil
}

// parseMoney acepta punto o coma decimal ("12.50" o "12,50"). Vacío es cero.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
