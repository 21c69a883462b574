// Package notify sends order confirmation emails, either straight through
// Resend or as an OrderPlaced event that cmd/notifier picks up.
package notify

import (
	"bytes"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/vntext"
	"html/template"
)

type Item struct {
	Name     string
	Quantity int
	Price    int64
}

type Confirmation struct {
	OrderID      string
	CustomerName string
	Email        string
	Items        []Item
	Total        int64
}

func FromOrder(o orders.Order) Confirmation {
	items := make([]Item, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, Item{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	return Confirmation{OrderID: o.ID, CustomerName: o.Customer.Name, Email: o.Customer.Email, Items: items, Total: o.Total}
}

func FromPayload(p orders.OrderPlacedPayload) Confirmation {
	items := make([]Item, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, Item{Name: it.Name, Quantity: it.Qty, Price: it.Price})
	}
	return Confirmation{OrderID: p.OrderID, CustomerName: p.Customer.Name, Email: p.Customer.Email, Items: items, Total: p.Total}
}

var bodyTmpl = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"vnd": vntext.FormatVND,
	"subtotal": func(it Item) int64 {
		return it.Price * int64(it.Quantity)
	},
}).Parse(`<!DOCTYPE html>
<html lang="vi">
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Cảm ơn bạn đã đặt hàng, {{.CustomerName}}!</h2>
  <p>Mã đơn hàng của bạn là <strong>#{{.OrderID}}</strong>.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Sản phẩm</th><th>Số lượng</th><th align="right">Đơn giá</th><th align="right">Thành tiền</th></tr>
    {{- range .Items}}
    <tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{vnd .Price}}</td><td align="right">{{vnd (subtotal .)}}</td></tr>
    {{- end}}
  </table>
  <p><strong>Tổng cộng: {{vnd .Total}}</strong></p>
  <p>Chúng tôi sẽ liên hệ với bạn để xác nhận giao hàng.</p>
</body>
</html>
`))

// Render returns the subject line and HTML body for c.
func Render(c Confirmation) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, c); err != nil {
		return "", "", err
	}
	return "Xác nhận đơn hàng #" + c.OrderID, buf.String(), nil
}
