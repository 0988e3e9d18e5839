// Package search defines the contract with the remote similarity-search
// service: a request goes out, a Pending comes back immediately, and the
// caller blocks on it for the ranked hits.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Database selects the target collection.
type Database string

const (
	UniRef100 Database = "uniref100"
	UniRef90  Database = "uniref90"
	UniRef50  Database = "uniref50"
	UniProtKB Database = "uniprotkb"
	SwissProt Database = "uniprotkb_swissprot"
	TrEMBL    Database = "uniprotkb_trembl"

	DefaultDatabase = UniRef90
)

// ParseDatabase accepts the short names above, case-insensitively.
func ParseDatabase(s string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniref100":
		return UniRef100, nil
	case "uniref90":
		return UniRef90, nil
	case "uniref50":
		return UniRef50, nil
	case "uniprotkb":
		return UniProtKB, nil
	case "swissprot", "uniprotkb_swissprot":
		return SwissProt, nil
	case "trembl", "uniprotkb_trembl":
		return TrEMBL, nil
	}
	return "", fmt.Errorf("unknown database %q (want uniref100|uniref90|uniref50|uniprotkb|swissprot|trembl)", s)
}

func (d Database) String() string { return string(d) }

// Request is one query.
type Request struct {
	Database Database
	Sequence string
}

// Hit is one ranked match.
type Hit struct {
	ID      string
	Summary string
}

// Result holds hits in rank order.
type Result struct {
	Hits []Hit
}

// Best returns the top-ranked hit.
func (r Result) Best() (Hit, bool) {
	if len(r.Hits) == 0 {
		return Hit{}, false
	}
	return r.Hits[0], true
}

// Service is a remote search session.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Search(ctx context.Context, req Request) *Pending
}

// Pending is a single-assignment result of an asynchronous search.
type Pending struct {
	done chan struct{}
	once sync.Once
	res  Result
	err  error
}

// NewPending returns an unresolved Pending.
func NewPending() *Pending { return &Pending{done: make(chan struct{})} }

// Resolved returns a Pending that is already complete.
func Resolved(res Result, err error) *Pending {
	p := NewPending()
	p.Resolve(res, err)
	return p
}

// Go runs fn on its own goroutine and resolves the returned Pending with it.
func Go(ctx context.Context, fn func(context.Context) (Result, error)) *Pending {
	p := NewPending()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Resolve(Result{}, fmt.Errorf("search panicked: %v", r))
			}
		}()
		p.Resolve(fn(ctx))
	}()
	return p
}

// Resolve completes p. Only the first call has an effect.
func (p *Pending) Resolve(res Result, err error) {
	p.once.Do(func() {
		p.res, p.err = res, err
		close(p.done)
	})
}

// Wait blocks until p resolves or ctx ends. An interrupted wait returns the
// context error; the search itself may still be running.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Func adapts a plain function into a Service with no-op Start and Stop.
type Func func(ctx context.Context, req Request) (Result, error)

func (f Func) Start(context.Context) error { return nil }
func (f Func) Stop(context.Context) error { return nil }
func (f Func) Search(ctx context.Context, req Request) *Pending {
	return Go(ctx, func(ctx context.Context) (Result, error) { return f(ctx, req) })
}
