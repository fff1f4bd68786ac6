package ingestion

import (
	"context"

	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/solana"
)

// SignatureParser resolves transaction signatures into enhanced transactions.
type SignatureParser interface {
	ParseTransactions(ctx context.Context, signatures []string) ([]helius.EnhancedTransaction, error)
}

// RunStream consumes log events until the channel closes or ctx is done.
// Each fresh signature is resolved through the outbound queue and handed to
// ProcessTransaction. Failed transactions and signatures already in the
// dedup cache are dropped before the parse call is spent.
func (p *Pipeline) RunStream(ctx context.Context, events <-chan solana.LogEvent, parser SignatureParser) error {
	p.logger.Println("Log stream consumer started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				p.logger.Println("Log stream closed")
				return nil
			}
			p.handleLogEvent(ctx, ev, parser)
		}
	}
}

func (p *Pipeline) handleLogEvent(ctx context.Context, ev solana.LogEvent, parser SignatureParser) {
	if ev.Signature == "" || ev.Err != nil {
		p.skip("failed_tx")
		return
	}
	if p.dedup.Has(ev.Signature) {
		p.skip("duplicate")
		return
	}

	var txs []helius.EnhancedTransaction
	err := p.queue.Do(ctx, "parse streamed transaction", func(ctx context.Context) error {
		var err error
		txs, err = parser.ParseTransactions(ctx, []string{ev.Signature})
		return err
	})
	if err != nil {
		p.logger.Printf("Error parsing streamed transaction %s: %v", ev.Signature, err)
		return
	}

	for i := range txs {
		p.ProcessTransaction(ctx, &txs[i])
	}
}
