// Package receipt formats tickets and hands them to a document sink.
package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
)

const rule = "--------------------------------"

// DefaultCurrency суффикс сумм на чеке
const DefaultCurrency = "DH"

// Ticket всё, что нужно для печати чека; собирается из строк базы
type Ticket struct {
	CafeName   string
	ServerName string
	OrderID    int64
	Date       time.Time
	Items      []domain.OrderItem
	Currency   string
}

// Total пересчитывается по позициям, а не берётся из заголовка заказа
func (t Ticket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range t.Items {
		total = total.Add(it.LineTotal().Round(2))
	}
	return total
}

// Render чистая функция: одинаковый Ticket даёт одинаковый текст
func Render(t Ticket) string {
	currency := t.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	money := func(d decimal.Decimal) string {
		return domain.FormatMoney(d) + " " + currency
	}

	lines := []string{
		"        " + t.CafeName,
		"   Ticket de caisse officiel",
		rule,
		"Serveur : " + t.ServerName,
		"Date    : " + t.Date.Format(domain.TimeLayout),
		"N° Cmd  : " + strconv.FormatInt(t.OrderID, 10),
		rule,
	}
	for _, it := range t.Items {
		lines = append(lines, fmt.Sprintf("%s x%d  %s", it.Name, it.Quantity, money(it.LineTotal())))
	}
	lines = append(lines,
		rule,
		"TOTAL À PAYER : "+money(t.Total()),
		rule,
		"Merci pour votre visite !",
		"À très bientôt.",
		"",
	)
	return strings.Join(lines, "\n")
}

// FileName имя файла чека для заказа
func FileName(orderID int64) string {
	return fmt.Sprintf("ticket_%d.txt", orderID)
}
