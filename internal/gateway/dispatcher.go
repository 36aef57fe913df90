package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/logging"
	"nf_gateway/internal/metrics"
	"nf_gateway/internal/providers"
	"nf_gateway/internal/utils"
)

// Resolver hands out the capability instance of a domain. The provider
// registry is the production implementation.
type Resolver interface {
	Resolve(ctx context.Context, domain providers.Domain) (providers.Capability, error)
	ProviderName(domain providers.Domain) string
}

// Dispatcher routes typed requests to resolved capabilities. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	resolver Resolver
	policy   Policy
	sink     logging.Sink
	metrics  metrics.Metrics
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithPolicy sets the request rules
func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// WithSink sets where dispatch records go
func WithSink(s logging.Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(resolver Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		policy:   DefaultPolicy(),
		sink:     logging.NewNoopSink(),
		metrics:  metrics.NewNoopMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves the capability for req, validates req and invokes the
// capability. Every outcome, including a provider panic, comes back as a
// Response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Response {
	start := d.now()
	domain := req.Domain()
	resp := &Response{Domain: domain, Provider: d.resolver.ProviderName(domain)}

	resp.Result, resp.Failure = d.dispatch(ctx, req)
	if resp.Failure != nil {
		resp.Result = nil
	}

	d.record(ctx, req, resp, d.now().Sub(start))
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (result any, failure *Failure) {
	capability, err := d.resolver.Resolve(ctx, req.Domain())
	if errors.Is(err, providers.ErrCapabilityNotConfigured) {
		return nil, &Failure{Kind: KindNotConfigured, Message: fmt.Sprintf("%s capability is not configured", req.Domain()), Err: err}
	}
	if err != nil {
		return nil, &Failure{Kind: KindBackendFailure, Message: fmt.Sprintf("%s provider unavailable", req.Domain()), Err: err}
	}

	if err := req.Validate(d.policy); err != nil {
		return nil, &Failure{Kind: KindInvalidRequest, Message: err.Error(), Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("Provider %s panicked: %v", capability.Name(), r)
			result = nil
			failure = &Failure{Kind: KindBackendFailure, Message: "provider failed unexpectedly", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = d.invoke(ctx, capability, req)
	if err != nil {
		return nil, classify(capability.Name(), err)
	}
	return result, nil
}

func (d *Dispatcher) invoke(ctx context.Context, capability providers.Capability, req Request) (any, error) {
	switch r := req.(type) {
	case *ChatRequest:
		chat, ok := capability.(providers.ChatProvider)
		if !ok {
			return nil, mismatch(capability, "chat")
		}
		text, err := chat.Generate(ctx, r.Prompt, r.Options)
		if err != nil {
			return nil, err
		}
		return &ChatResult{Text: text}, nil

	case *UploadRequest:
		store, ok := capability.(providers.BlobStore)
		if !ok {
			return nil, mismatch(capability, "blob storage")
		}
		locator, err := store.Put(ctx, r.Container, r.Filename, r.Data)
		if err != nil {
			return nil, err
		}
		return &UploadResult{Locator: locator, Container: r.Container, Key: r.Filename}, nil

	case *SignRequest:
		store, ok := capability.(providers.BlobStore)
		if !ok {
			return nil, mismatch(capability, "blob storage")
		}
		ttl := r.effectiveTTL(d.policy)
		url, err := store.Sign(ctx, r.Container, r.Key, ttl)
		if err != nil {
			return nil, err
		}
		return &SignResult{URL: url, ExpiresIn: ttl}, nil

	case *LookupRequest:
		store, ok := capability.(providers.RecordStore)
		if !ok {
			return nil, mismatch(capability, "record lookup")
		}
		rec, err := store.Get(ctx, r.Key)
		if err != nil {
			return nil, err
		}
		return &LookupResult{Record: rec}, nil
	}
	return nil, fmt.Errorf("unsupported request type %T", req)
}

func mismatch(c providers.Capability, want string) error {
	return fmt.Errorf("provider %q does not implement %s", c.Name(), want)
}

// classify maps a provider error to a failure. Driver and SDK messages stay
// in Err and the logs; callers only see which provider failed.
func classify(provider string, err error) *Failure {
	if errors.Is(err, providers.ErrRecordNotFound) {
		return &Failure{Kind: KindNotFound, Message: "record not found", Err: err}
	}

	f := &Failure{
		Kind:      KindBackendFailure,
		Message:   fmt.Sprintf("%s backend failed", provider),
		Err:       err,
		Retryable: utils.IsRecoverableError(err),
	}
	var statusErr *providers.StatusError
	if errors.As(err, &statusErr) {
		f.Retryable = statusErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		f.Message = "backend timed out"
		f.Retryable = true
	}
	return f
}

func (d *Dispatcher) record(ctx context.Context, req Request, resp *Response, elapsed time.Duration) {
	outcome := "ok"
	rec := &logging.Record{
		Timestamp: d.now().UTC(),
		RequestID: RequestIDFromContext(ctx),
		Domain:    string(resp.Domain),
		Provider:  resp.Provider,
		LatencyMs: elapsed.Milliseconds(),
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		rec.KeyID = p.KeyID
		rec.Owner = p.Owner
	}
	if up, ok := req.(*UploadRequest); ok {
		rec.Bytes = len(up.Data)
	}
	if resp.Failure != nil {
		outcome = string(resp.Failure.Kind)
		rec.Error = resp.Failure.Message
	}
	rec.Outcome = outcome

	d.metrics.ObserveDispatch(rec.Domain, rec.Provider, outcome, elapsed)

	entry := logging.WithFields(logrus.Fields{
		"request_id": rec.RequestID,
		"domain":     rec.Domain,
		"provider":   rec.Provider,
		"outcome":    outcome,
		"latency_ms": rec.LatencyMs,
	})
	switch {
	case resp.Failure == nil:
		entry.Debug("dispatch completed")
	case resp.Failure.Kind == KindBackendFailure:
		entry.WithError(resp.Failure.Err).Warn("dispatch failed")
	default:
		entry.Info("dispatch rejected")
	}

	if err := d.sink.Enqueue(rec); err != nil {
		logging.Warningf("Failed to record dispatch %s: %v", rec.RequestID, err)
	}
}
