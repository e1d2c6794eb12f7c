package fixtures

import (
	"context"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/parser"
)

// StubParser returns a canned result regardless of input, and records the
// events it saw.
type StubParser struct {
	Result parser.Result
	Seen   []domain.RawEvent
}

func (p *StubParser) Parse(_ context.Context, e domain.RawEvent) parser.Result {
	p.Seen = append(p.Seen, e)
	return p.Result
}
