package dydx

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/c9s/bandbot/pkg/types"
)

// parseOrderBookMessage extracts the non-empty price levels of an orderbook
// message. The subscription snapshot carries {"price","size"} objects and the
// updates carry ["price","size"] pairs, both are accepted.
func parseOrderBookMessage(p *fastjson.Parser, message []byte, symbol string, now time.Time) ([]types.Quote, error) {
	v, err := p.ParseBytes(message)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid json: %s", message)
	}

	switch string(v.GetStringBytes("type")) {
	case "subscribed", "channel_data":
	case "error":
		return nil, errors.Errorf("dydx error: %s", v.GetStringBytes("message"))
	default:
		return nil, nil
	}

	contents := v.Get("contents")
	if contents == nil {
		return nil, nil
	}

	var quotes []types.Quote
	for _, book := range []struct {
		key  string
		side types.BookSide
	}{
		{"asks", types.BookSideAsk},
		{"bids", types.BookSideBid},
	} {
		for _, level := range contents.GetArray(book.key) {
			price, size, err := parseLevel(level)
			if err != nil {
				return nil, errors.Wrapf(err, "%s level %s", book.key, level)
			}

			// zero size removes the level
			if size <= 0 {
				continue
			}

			quotes = append(quotes, types.Quote{
				Symbol: symbol,
				Price:  price,
				Size:   size,
				Side:   book.side,
				Time:   now,
			})
		}
	}

	return quotes, nil
}

func parseLevel(level *fastjson.Value) (price, size float64, err error) {
	switch level.Type() {
	case fastjson.TypeArray:
		pair := level.GetArray()
		if len(pair) < 2 {
			return 0, 0, errors.New("expecting [price, size]")
		}

		if price, err = parseNumber(pair[0]); err != nil {
			return 0, 0, err
		}

		size, err = parseNumber(pair[1])
		return price, size, err

	case fastjson.TypeObject:
		if price, err = parseNumber(level.Get("price")); err != nil {
			return 0, 0, err
		}

		size, err = parseNumber(level.Get("size"))
		return price, size, err
	}

	return 0, 0, errors.Errorf("unexpected level type %s", level.Type())
}

func parseNumber(v *fastjson.Value) (float64, error) {
	if v == nil {
		return 0, errors.New("missing number")
	}

	switch v.Type() {
	case fastjson.TypeString:
		return strconv.ParseFloat(string(v.GetStringBytes()), 64)
	case fastjson.TypeNumber:
		return v.Float64()
	}

	return 0, errors.Errorf("unexpected number type %s", v.Type())
}
