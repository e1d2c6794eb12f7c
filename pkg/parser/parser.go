// Package parser turns raw notification text into structured payment facts.
// Parsing is source-specific and best-effort; the pipeline treats every
// outcome explicitly rather than guessing.
package parser

import (
	"context"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

type resultKind int

const (
	kindSuccess resultKind = iota
	kindSkipped
	kindFailed
	kindUnsupported
	kindError
)

// Result is the outcome of one parse attempt. Skipped means the text is
// recognizably not a payment; Failed means it looked like one but the facts
// could not be extracted; Unsupported means no parser handles the source.
type Result struct {
	kind         resultKind
	notification domain.ParsedNotification
	reason       string
	err          error
}

func Success(n domain.ParsedNotification) Result {
	return Result{kind: kindSuccess, notification: n}
}
func Skipped(reason string) Result { return Result{kind: kindSkipped, reason: reason} }
func Failed(reason string) Result  { return Result{kind: kindFailed, reason: reason} }
func Unsupported() Result          { return Result{kind: kindUnsupported} }
func Failure(err error) Result     { return Result{kind: kindError, err: err} }

func (r Result) IsSuccess() bool     { return r.kind == kindSuccess }
func (r Result) IsSkipped() bool     { return r.kind == kindSkipped }
func (r Result) IsFailed() bool      { return r.kind == kindFailed }
func (r Result) IsUnsupported() bool { return r.kind == kindUnsupported }
func (r Result) IsError() bool       { return r.kind == kindError }

// Notification returns the parsed facts of a success result.
func (r Result) Notification() domain.ParsedNotification { return r.notification }

// Reason returns the skip or failure reason.
func (r Result) Reason() string { return r.reason }

// Err returns the failure of an error result.
func (r Result) Err() error { return r.err }

// Parser extracts payment facts from one raw event.
type Parser interface {
	Parse(ctx context.Context, e domain.RawEvent) Result
}
