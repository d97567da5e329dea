package processors

import (
	"context"
	"log/slog"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
	"github.com/ruslano69/listing-wrangler/pkg/currency"
)

// CurrencyNormalizer заменяет пару колонок цена/валюта одной колонкой цены в USD
type CurrencyNormalizer struct {
	priceColumn    string
	currencyColumn string
	outputColumn   string
	policy         currency.Policy
	logger         *slog.Logger
}

// NewCurrencyNormalizer создает нормализатор цен
func NewCurrencyNormalizer(priceColumn, currencyColumn, outputColumn string, policy currency.Policy) *CurrencyNormalizer {
	if policy == "" {
		policy = currency.PolicyDrop
	}
	return &CurrencyNormalizer{
		priceColumn:    priceColumn,
		currencyColumn: currencyColumn,
		outputColumn:   outputColumn,
		policy:         policy,
		logger:         slog.Default(),
	}
}

// WithLogger устанавливает логгер
func (n *CurrencyNormalizer) WithLogger(logger *slog.Logger) *CurrencyNormalizer {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// Name возвращает имя процессора
func (n *CurrencyNormalizer) Name() string {
	return "currency_normalizer"
}

// Process реализует интерфейс Processor
func (n *CurrencyNormalizer) Process(ctx context.Context, ds *table.Dataset) (*table.Dataset, error) {
	idx, err := ds.Indices(StageNormalize, []string{n.priceColumn, n.currencyColumn})
	if err != nil {
		return nil, err
	}
	priceCol, codeCol := idx[0], idx[1]

	normalized := make([]table.Value, len(ds.Rows))
	unknown := make(map[string]int)
	drop := make([]bool, len(ds.Rows))

	for i, row := range ds.Rows {
		code := row[codeCol].String()
		amount, hasAmount := row[priceCol].Float()

		_, known := currency.Rate(code)
		if !known {
			unknown[code]++
			switch n.policy {
			case currency.PolicyFail:
				return nil, errs.UnknownCurrency(StageNormalize, n.currencyColumn, code)
			case currency.PolicyDrop:
				drop[i] = true
				continue
			}
		}

		if !hasAmount {
			normalized[i] = table.Missing()
			continue
		}
		if !known {
			// passthrough: множитель 1
			normalized[i] = table.Number(amount)
			continue
		}
		usd, _ := currency.Convert(amount, code)
		normalized[i] = table.Number(usd)
	}

	for code, count := range unknown {
		n.logger.WarnContext(ctx, "unknown currency code",
			"code", code, "records", count, "policy", string(n.policy))
	}

	out := ds.AppendColumn(table.Field{Name: n.outputColumn, Type: table.TypeReal}, normalized)
	if len(unknown) > 0 && n.policy == currency.PolicyDrop {
		out = out.Filter(func(i int, _ table.Row) bool { return !drop[i] })
	}

	return out.DropColumns(StageNormalize, n.priceColumn, n.currencyColumn)
}
