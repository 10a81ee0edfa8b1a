package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"

	"github.com/vivaflower/storefront-backend/pkg/email"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
)

func placedMessage(orderID uuid.UUID) string {
	return fmt.Sprintf("Your order #%s has been placed successfully.", orderID)
}

func canceledMessage(orderID uuid.UUID) string {
	return fmt.Sprintf("Your order #%s has been canceled.", orderID)
}

// statusMessage returns the in-app text for a transition, or "" when the
// status does not notify the guest.
func statusMessage(orderID uuid.UUID, status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return fmt.Sprintf("Your order #%s has been confirmed by VivaFlower.", orderID)
	case enums.OrderStatusShipped:
		return fmt.Sprintf("Your order #%s has been delivered to the carrier.", orderID)
	case enums.OrderStatusDelivered:
		return fmt.Sprintf("Your order #%s has been delivered. You can rate the product quality.", orderID)
	default:
		return ""
	}
}

func orderURL(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", orderID)
}

type orderLineView struct {
	ProductName    string
	Quantity       int
	UnitPrice      string
	LocationPickup string
}

type newOrderView struct {
	OrderID         uuid.UUID
	RecipientName   string
	RecipientPhone  string
	ShippingCost    string
	GSTAmount       string
	TotalCost       string
	PaymentMethod   enums.PaymentMethod
	ShippingAddress string
	Paid            bool
	Lines           []orderLineView
}

var newOrderHTML = template.Must(template.New("new_order").Parse(`<html>
<body>
<h2 style="color: #1a73e8;">You have a new order from {{.RecipientName}}</h2>
<p><strong>Order ID:</strong> {{.OrderID}}</p>
<p><strong>Recipient Name:</strong> {{.RecipientName}}</p>
{{if .RecipientPhone}}<p><strong>Phone:</strong> {{.RecipientPhone}}</p>{{end}}
{{if .ShippingCost}}<p><strong>Shipping Cost:</strong> <span style="color: red;">{{.ShippingCost}} VND</span></p>{{end}}
{{if .GSTAmount}}<p><strong>GST amount:</strong> <span style="color: red;">{{.GSTAmount}}</span></p>{{end}}
<p><strong>Total Cost:</strong> <span style="color: red;">{{.TotalCost}} VND</span></p>
<p><strong>Payment Method:</strong> {{.PaymentMethod}}{{if .Paid}} (paid){{end}}</p>
{{if .ShippingAddress}}<p><strong>Shipping Address:</strong> {{.ShippingAddress}}</p>{{end}}
<h3>Order Details</h3>
<table border="1" cellpadding="5" cellspacing="0">
<thead><tr><th>Product Name</th><th>Quantity</th><th>Unit Price</th><th>Location Pickup</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}} VND</td><td>{{.LocationPickup}}</td></tr>
{{end}}</tbody>
</table>
<br>
<p style="color: green;">Please confirm your order now!</p>
</body>
</html>`))

var cancellationHTML = template.Must(template.New("order_canceled").Parse(`<html>
<body>
<h2>Order #{{.OrderID}} was canceled</h2>
<p>{{.RecipientName}} canceled the order before it was confirmed.</p>
<p>No stock was taken for this order.</p>
</body>
</html>`))

var statusUpdateHTML = template.Must(template.New("status_update").Parse(`<html>
<body>
<h2>Hello {{.GuestName}},</h2>
<p>The status of your order <strong>#{{.OrderID}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p>Thank you for shopping with VivaFlower.</p>
</body>
</html>`))

func newOrderFromPlaced(p *payloads.OrderPlacedEvent) newOrderView {
	return newOrderView{
		OrderID:         p.OrderID,
		RecipientName:   p.RecipientName,
		RecipientPhone:  p.RecipientPhone,
		ShippingCost:    p.ShippingCost.StringFixed(2),
		GSTAmount:       p.GSTAmount.String(),
		TotalCost:       p.TotalCost.StringFixed(2),
		PaymentMethod:   p.PaymentMethod,
		ShippingAddress: p.ShippingAddress,
		Lines:           lineViews(p.Lines),
	}
}

func newOrderFromPaid(p *payloads.OrderPaidEvent) newOrderView {
	return newOrderView{
		OrderID:       p.OrderID,
		RecipientName: p.RecipientName,
		TotalCost:     p.Amount.StringFixed(2),
		PaymentMethod: p.PaymentMethod,
		Paid:          true,
		Lines:         lineViews(p.Lines),
	}
}

func lineViews(lines []payloads.OrderLine) []orderLineView {
	views := make([]orderLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, orderLineView{
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice.StringFixed(2),
			LocationPickup: l.LocationPickup,
		})
	}
	return views
}

func newOrderEmail(to string, view newOrderView) (email.Message, error) {
	html, err := render(newOrderHTML, view)
	if err != nil {
		return email.Message{}, err
	}
	var text strings.Builder
	fmt.Fprintf(&text, "You have a new order from %s\n", view.RecipientName)
	fmt.Fprintf(&text, "Order ID: %s\nTotal Cost: %s VND\nPayment Method: %s\n", view.OrderID, view.TotalCost, view.PaymentMethod)
	for _, l := range view.Lines {
		fmt.Fprintf(&text, "- %s x%d @ %s VND (%s)\n", l.ProductName, l.Quantity, l.UnitPrice, l.LocationPickup)
	}
	text.WriteString("Please confirm your order now!\n")
	return email.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New order #%s - %s", view.OrderID, view.RecipientName),
		Text:    text.String(),
		HTML:    html,
	}, nil
}

func cancellationEmail(to string, p *payloads.OrderCanceledEvent) (email.Message, error) {
	html, err := render(cancellationHTML, p)
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Order #%s Cancellation Notice", p.OrderID),
		Text:    fmt.Sprintf("Order #%s was canceled by %s.\n", p.OrderID, p.RecipientName),
		HTML:    html,
	}, nil
}

func statusUpdateEmail(to, guestName string, p *payloads.OrderStatusChangedEvent) (email.Message, error) {
	status := capitalize(string(p.Status))
	view := struct {
		GuestName string
		OrderID   uuid.UUID
		Status    string
	}{GuestName: guestName, OrderID: p.OrderID, Status: status}
	html, err := render(statusUpdateHTML, view)
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Order #%s Status Update: %s", p.OrderID, status),
		Text:    fmt.Sprintf("Hello %s,\nThe status of your order #%s is now %s.\n", guestName, p.OrderID, status),
		HTML:    html,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
