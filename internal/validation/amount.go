// Package validation содержит функции валидации входных данных.
package validation

import "github.com/shopspring/decimal"

// maxAmount — верхняя граница суммы, согласована с типом колонки NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// IsValidAmount проверяет, что сумма пригодна для зачисления на баланс:
// неотрицательная, не более двух знаков после запятой и меньше 10^10.
func IsValidAmount(amount decimal.Decimal) bool {
	if amount.IsNegative() {
		return false
	}
	if !amount.Equal(amount.Round(2)) {
		return false
	}
	return amount.LessThan(maxAmount)
}
