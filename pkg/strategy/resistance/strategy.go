package resistance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/bbgo"
	"github.com/c9s/bandbot/pkg/exchange/paper"
	"github.com/c9s/bandbot/pkg/metrics"
	"github.com/c9s/bandbot/pkg/slack/slackstyle"
	"github.com/c9s/bandbot/pkg/types"
	"github.com/c9s/bandbot/pkg/util"
)

const ID = "resistance"

var log = logrus.WithField("strategy", ID)

func init() {
	bbgo.RegisterStrategy(ID, &Strategy{})
}

type Strategy struct {
	// Symbol overrides the symbol of the session
	Symbol string `json:"symbol"`

	// Window is the number of one-second samples of a fit
	Window int `json:"window"`

	// Deviations is the band width in standard deviations
	Deviations float64 `json:"deviations"`

	// Sensitivity is the fractional distance the price must clear the band by
	Sensitivity float64 `json:"sensitivity"`

	Quantity          float64         `json:"quantity"`
	QuantityPrecision int32           `json:"quantityPrecision"`
	PricePrecision    int32           `json:"pricePrecision"`
	OrderType         types.OrderType `json:"orderType"`

	QueueSize        int                       `json:"queueSize"`
	RingSize         int                       `json:"ringSize"`
	DegeneratePolicy analysis.DegeneratePolicy `json:"degeneratePolicy"`

	// DisableRefit keeps the first band forever
	DisableRefit bool `json:"disableRefit"`

	StallTimeout    types.Duration `json:"stallTimeout"`
	SubmitTimeout   types.Duration `json:"submitTimeout"`
	SubmitRateLimit string         `json:"submitRateLimit"`

	// NotifyChart uploads a chart of every fitted window
	NotifyChart bool `json:"notifyChart"`

	DryRun bool `json:"dryRun"`

	session   *bbgo.ExchangeSession
	submitter types.OrderSubmitter

	evaluator *Evaluator
	bucketer  *analysis.TickBucketer
	ring      *analysis.Ring
	limiter   *rate.Limiter
	metrics   *metrics.ResistanceMetrics

	lastBid, lastAsk, livePrice float64

	// now is used for quotes without a receive time
	now func() time.Time
}

func (s *Strategy) ID() string {
	return ID
}

func (s *Strategy) InstanceID() string {
	return fmt.Sprintf("%s:%s", ID, s.Symbol)
}

func (s *Strategy) Defaults() error {
	if s.Window == 0 {
		s.Window = 10
	}

	if s.Deviations == 0 {
		s.Deviations = 1.0
	}

	if s.Sensitivity == 0 {
		s.Sensitivity = 0.0002
	}

	if s.QueueSize == 0 {
		s.QueueSize = 30
	}

	if s.RingSize == 0 {
		s.RingSize = s.Window
	}

	if s.OrderType == "" {
		s.OrderType = types.OrderTypeMarket
	}

	if s.DegeneratePolicy == "" {
		s.DegeneratePolicy = analysis.DegenerateSkip
	}

	if s.StallTimeout == 0 {
		s.StallTimeout = types.Duration(10 * time.Second)
	}

	if s.SubmitTimeout == 0 {
		s.SubmitTimeout = types.Duration(10 * time.Second)
	}

	if s.QuantityPrecision == 0 {
		s.QuantityPrecision = 8
	}

	if s.PricePrecision == 0 {
		s.PricePrecision = 8
	}

	if s.SubmitRateLimit == "" {
		s.SubmitRateLimit = "3+1/10s"
	}

	return nil
}

func (s *Strategy) Validate() error {
	if s.Window < 2 {
		return errors.Wrapf(analysis.ErrInvalidWindowSize, "window %d", s.Window)
	}

	if s.Deviations < 0 {
		return errors.Wrapf(analysis.ErrInvalidDeviation, "deviations %f", s.Deviations)
	}

	if s.Sensitivity < 0 {
		return fmt.Errorf("sensitivity can not be negative, got %f", s.Sensitivity)
	}

	if s.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %f", s.Quantity)
	}

	if s.QueueSize < 1 {
		return fmt.Errorf("queueSize must be positive, got %d", s.QueueSize)
	}

	if !s.DegeneratePolicy.Valid() {
		return fmt.Errorf("unknown degeneratePolicy %q, expecting skip or carry", s.DegeneratePolicy)
	}

	if _, err := util.ParseRateLimitSyntax(s.SubmitRateLimit); err != nil {
		return err
	}

	return nil
}

func (s *Strategy) Run(ctx context.Context, session *bbgo.ExchangeSession) error {
	if s.Symbol == "" {
		s.Symbol = session.Symbol
	}

	if s.now == nil {
		s.now = time.Now
	}

	limiter, err := util.ParseRateLimitSyntax(s.SubmitRateLimit)
	if err != nil {
		return err
	}

	ring, err := analysis.NewRing(s.RingSize)
	if err != nil {
		return err
	}

	s.session = session
	s.limiter = limiter
	s.ring = ring
	s.evaluator = NewEvaluator(s.Sensitivity)
	s.metrics = metrics.NewResistanceMetrics(ID, session.ExchangeName, s.Symbol)

	s.submitter = session.OrderSubmitter
	if s.DryRun || s.submitter == nil {
		log.Infof("%s: dry run, orders are filled by the paper submitter", s.Symbol)
		s.submitter = paper.NewSubmitter()
	}

	quoteC := make(chan types.Quote, s.QueueSize)

	// the feed goroutine owns quoteC
	feedErrC := make(chan error, 1)
	go func() {
		defer close(quoteC)
		feedErrC <- session.QuoteFeed.Run(ctx, quoteC)
	}()

	consumeErr := s.consume(ctx, quoteC)

	feedErr := <-feedErrC
	if ctx.Err() != nil && errors.Is(feedErr, context.Canceled) {
		feedErr = nil
	}

	return multierr.Append(feedErr, consumeErr)
}

// consume reads the quotes until the channel is closed. Quotes already
// queued when the context is canceled are still folded into the bucketer,
// but no order is placed for them.
func (s *Strategy) consume(ctx context.Context, quoteC <-chan types.Quote) error {
	stallTimeout := s.StallTimeout.Duration()
	stall := time.NewTimer(stallTimeout)
	defer stall.Stop()

	for {
		select {
		case q, ok := <-quoteC:
			if !ok {
				if ctx.Err() != nil {
					log.Infof("%s: quote channel drained after shutdown", s.Symbol)
					return nil
				}
				return ErrChannelClosed
			}

			s.handleQuote(ctx, q)
			stall.Reset(stallTimeout)

		case <-stall.C:
			log.Warnf("%s: no quote received in %s", s.Symbol, stallTimeout)
			stall.Reset(stallTimeout)
		}
	}
}

func (s *Strategy) handleQuote(ctx context.Context, q types.Quote) {
	now := q.Time
	if now.IsZero() {
		now = s.now()
	}

	if s.bucketer == nil {
		buf, err := analysis.NewSampleBuffer(s.Window)
		if err != nil {
			log.WithError(err).Errorf("%s: can not allocate sample buffer", s.Symbol)
			return
		}

		s.bucketer = analysis.NewTickBucketer(buf, now, s.DegeneratePolicy)
		log.Infof("%s: collecting %d samples, anchored at %s", s.Symbol, s.Window, now.Format(time.RFC3339))
	}

	appended, err := s.bucketer.Feed(q, now)
	switch {
	case errors.Is(err, analysis.ErrDegenerateBucket):
		s.metrics.IncDegenerate()
		log.WithError(err).Debugf("%s: degenerate bucket", s.Symbol)

	case errors.Is(err, analysis.ErrBufferFull):
		log.WithError(err).Debugf("%s: window is complete", s.Symbol)

	case err != nil:
		log.WithError(err).Errorf("%s: bucketer error", s.Symbol)
	}

	if appended {
		s.onSample(now)
	}

	if !q.Valid() {
		return
	}

	switch q.Side {
	case types.BookSideBid:
		s.lastBid = q.Price
	case types.BookSideAsk:
		s.lastAsk = q.Price
	}

	if s.lastBid <= 0 || s.lastAsk <= 0 {
		return
	}

	price := (s.lastBid + s.lastAsk) / 2.0
	if price == s.livePrice {
		return
	}

	s.livePrice = price
	s.metrics.SetLivePrice(price)

	if ctx.Err() != nil {
		return
	}

	s.evaluate(ctx, price, now)
}

func (s *Strategy) onSample(now time.Time) {
	s.metrics.IncSamples()

	buf := s.bucketer.Buffer()
	elapsed, mid, _ := buf.Last()
	s.ring.Push(types.Trade{Price: mid, Timestamp: uint64(now.Unix())})
	s.metrics.SetRingAverage(s.ring.Average())

	log.Debugf("%s: sample #%d elapsed=%d mid=%f avg=%f %s",
		s.Symbol, buf.Len(), elapsed, mid, s.ring.Average(), s.bucketer.LastPartition())

	if !buf.Full() {
		return
	}

	s.refit(buf)

	if !s.DisableRefit {
		fresh, err := analysis.NewSampleBuffer(s.Window)
		if err != nil {
			log.WithError(err).Errorf("%s: can not allocate sample buffer", s.Symbol)
			return
		}
		s.bucketer.Rotate(fresh)
	}
}

// refit fits the full window and swaps the band in only when the fit succeeds
func (s *Strategy) refit(buf *analysis.SampleBuffer) {
	lines, err := analysis.Fit(buf, s.Deviations)
	s.metrics.IncFit(err)
	if err != nil {
		log.WithError(err).Warnf("%s: fit failed, keeping the previous band", s.Symbol)
		return
	}

	_, hadLines := s.evaluator.Lines()
	s.evaluator.SetLines(lines, s.bucketer.Anchor())

	if !hadLines {
		bbgo.NotifySymbol(s.Symbol, "%s %s: gathered %d samples, start trading with band %s", slackstyle.TrendIcon(lines.Beta), s.Symbol, buf.Len(), lines.String())
	} else {
		log.Infof("%s: band refitted %s", s.Symbol, lines)
	}

	if s.NotifyChart {
		title := fmt.Sprintf("%s band %s", s.Symbol, s.bucketer.Anchor().Format(time.RFC3339))
		buffer, err := RenderBand(title, buf, lines)
		if err != nil {
			log.WithError(err).Errorf("%s: can not render band chart", s.Symbol)
			return
		}
		bbgo.SendPhoto(buffer)
	}
}

func (s *Strategy) evaluate(ctx context.Context, price float64, now time.Time) {
	lines, ok := s.evaluator.Lines()
	if !ok {
		return
	}

	t := s.evaluator.Elapsed(now)
	s.metrics.UpdateBand(lines, t)

	intent := s.evaluator.Evaluate(price, t)
	if intent == types.IntentNone {
		return
	}

	s.metrics.IncIntent(intent)

	sell, buy := s.evaluator.Thresholds(t)
	log.Infof("%s: %s intent at %f (sell %f, buy %f, t=%.3f)", s.Symbol, intent, price, sell, buy, t)

	if err := s.execute(ctx, intent, price); err != nil {
		log.WithError(err).Errorf("%s: %s entry failed", s.Symbol, intent)
		bbgo.NotifySymbol(s.Symbol, "%s: %s entry failed: %v", s.Symbol, intent, err)
	}
}

func (s *Strategy) execute(ctx context.Context, intent types.Intent, price float64) error {
	side, ok := intent.Side()
	if !ok {
		return nil
	}

	if !s.limiter.Allow() {
		log.Warnf("%s: order submission is rate limited, %s skipped", s.Symbol, intent)
		return nil
	}

	quantity := s.Quantity
	if s.evaluator.Reversing(intent) {
		quantity *= 2
	}

	order := types.SubmitOrder{
		ClientOrderID: uuid.New().String(),
		Symbol:        s.Symbol,
		Side:          side,
		Type:          s.OrderType,
		Quantity:      util.TruncateFloat(quantity, s.QuantityPrecision),
		Price:         util.TruncateFloat(price, s.PricePrecision),
		Tag:           ID,
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.SubmitTimeout.Duration())
	defer cancel()

	fill, err := s.submitter.SubmitOrder(submitCtx, order)
	s.metrics.IncOrder(side, err)
	if err != nil {
		return errors.Wrapf(ErrOrderSubmissionFailed, "%s: %v", order, err)
	}

	s.evaluator.OnFill(intent)
	bbgo.NotifySymbol(s.Symbol, "%s: %s order filled", s.Symbol, side, fill)
	return nil
}

func (s *Strategy) Shutdown(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	if s.evaluator == nil {
		return
	}

	log.Infof("%s: shutting down, %s", s.Symbol, s.evaluator)
}
