package types

import (
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/c9s/bandbot/pkg/slack/slackstyle"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

type SubmitOrder struct {
	ClientOrderID string `json:"clientOrderID"`

	Symbol string    `json:"symbol"`
	Side   SideType  `json:"side"`
	Type   OrderType `json:"orderType"`

	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`

	Tag string `json:"tag,omitempty"`
}

func (o SubmitOrder) String() string {
	return fmt.Sprintf("SubmitOrder %s %s %s %f @ %f (%s)", o.Symbol, o.Type, o.Side, o.Quantity, o.Price, o.ClientOrderID)
}

func (o *SubmitOrder) SlackAttachment() slack.Attachment {
	return slack.Attachment{
		Color: sideColor(o.Side),
		Title: fmt.Sprintf("%s %s %s", o.Type, o.Side, o.Symbol),
		Fields: []slack.AttachmentField{
			{Title: "Price", Value: fmt.Sprintf("%f", o.Price), Short: true},
			{Title: "Quantity", Value: fmt.Sprintf("%f", o.Quantity), Short: true},
		},
	}
}

// Fill is the execution confirmation of a submitted order
type Fill struct {
	OrderID       string    `json:"orderID"`
	ClientOrderID string    `json:"clientOrderID"`
	Symbol        string    `json:"symbol"`
	Side          SideType  `json:"side"`
	Price         float64   `json:"price"`
	Quantity      float64   `json:"quantity"`
	Time          time.Time `json:"time"`
}

func (f Fill) String() string {
	return fmt.Sprintf("Fill %s %s %f @ %f (%s)", f.Symbol, f.Side, f.Quantity, f.Price, f.OrderID)
}

func (f *Fill) SlackAttachment() slack.Attachment {
	return slack.Attachment{
		Color: sideColor(f.Side),
		Title: fmt.Sprintf("Filled %s %s", f.Side, f.Symbol),
		Fields: []slack.AttachmentField{
			{Title: "Price", Value: fmt.Sprintf("%f", f.Price), Short: true},
			{Title: "Quantity", Value: fmt.Sprintf("%f", f.Quantity), Short: true},
			{Title: "OrderID", Value: f.OrderID, Short: false},
		},
	}
}

func sideColor(side SideType) string {
	switch side {
	case SideTypeBuy:
		return slackstyle.Green
	case SideTypeSell:
		return slackstyle.Red
	}
	return slackstyle.Neutral
}
