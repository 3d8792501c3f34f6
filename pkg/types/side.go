package types

import (
	"fmt"
	"strings"
)

// SideType define side type of order
type SideType string

const (
	SideTypeBuy  = SideType("BUY")
	SideTypeSell = SideType("SELL")
)

func (side SideType) Reverse() SideType {
	switch side {
	case SideTypeBuy:
		return SideTypeSell

	case SideTypeSell:
		return SideTypeBuy
	}

	return side
}

// BookSide is the side of the order book a quote belongs to
type BookSide int

const (
	BookSideBid BookSide = iota + 1
	BookSideAsk
)

func (s BookSide) String() string {
	switch s {
	case BookSideBid:
		return "bid"
	case BookSideAsk:
		return "ask"
	}

	return "unknown"
}

func ParseBookSide(s string) (BookSide, error) {
	switch strings.ToLower(s) {
	case "bid", "bids", "buy":
		return BookSideBid, nil
	case "ask", "asks", "sell":
		return BookSideAsk, nil
	}

	return 0, fmt.Errorf("unknown book side: %q", s)
}
