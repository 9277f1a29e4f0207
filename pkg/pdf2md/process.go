package pdf2md

import (
	"context"
	"fmt"

	"github.com/agenticmd/pdf2md/internal/async"
	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/extract"
	"github.com/agenticmd/pdf2md/internal/pdf"
)

// Result is a fully processed document. It owns the underlying raw
// document; callers must Close it on every exit path to release the
// native handle.
type Result struct {
	*extract.Pipeline
	raw *pdf.RawDocument
}

// Close releases the native document handle. Safe to call repeatedly.
func (r *Result) Close() error {
	return r.raw.Close()
}

// ProcessOptions carries the cooperative-cancellation token and progress
// reporter for asynchronous processing. The zero value disables both.
type ProcessOptions struct {
	Token    *CancellationToken
	Reporter Reporter
}

func (o *ProcessOptions) report(operation string, info ProgressInfo) {
	if o != nil && o.Reporter != nil {
		o.Reporter.ReportProgress(operation, info)
	}
}

func (o *ProcessOptions) cancelled() bool {
	return o != nil && o.Token != nil && o.Token.IsCancelled()
}

// ProcessFile loads and extracts a PDF from a file path, inline.
func (c *Client) ProcessFile(path string) (*Result, error) {
	raw, err := pdf.NewRawDocument(path, "", c.eng, c.log)
	if err != nil {
		return nil, err
	}
	return c.process(raw)
}

// ProcessBase64 loads and extracts a PDF from a base64 payload,
// optionally prefixed with a data-URL header, inline.
func (c *Client) ProcessBase64(content string) (*Result, error) {
	raw, err := pdf.NewRawDocument("", content, c.eng, c.log)
	if err != nil {
		return nil, err
	}
	return c.process(raw)
}

func (c *Client) process(raw *pdf.RawDocument) (*Result, error) {
	pipeline, err := extract.NewPipeline(raw, c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	if err := pipeline.Process(); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Result{Pipeline: pipeline, raw: raw}, nil
}

// ProcessFileAsync starts background processing of a PDF file and
// returns immediately with the operation tracking it.
func (c *Client) ProcessFileAsync(ctx context.Context, path string, opts *ProcessOptions) (*Operation, error) {
	raw, err := pdf.NewRawDocument(path, "", c.eng, c.log)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Processing PDF from file: %s", path)
	return c.processAsync(ctx, name, raw, opts), nil
}

// ProcessBase64Async starts background processing of a base64 payload
// and returns immediately with the operation tracking it.
func (c *Client) ProcessBase64Async(ctx context.Context, content string, opts *ProcessOptions) (*Operation, error) {
	raw, err := pdf.NewRawDocument("", content, c.eng, c.log)
	if err != nil {
		return nil, err
	}
	return c.processAsync(ctx, "Processing PDF from base64 content", raw, opts), nil
}

// processAsync runs the load and extraction stages on the executor. The
// cancellation token is polled between stages only; the two-pass
// extraction itself runs to completion or failure atomically.
func (c *Client) processAsync(ctx context.Context, name string, raw *pdf.RawDocument, opts *ProcessOptions) *Operation {
	opts.report(name, ProgressInfo{Stage: StageInitialization, Message: "Starting PDF processing"})

	return async.StartOperation(ctx, c.exec, name, c.log, func(workCtx context.Context) (*Result, error) {
		if opts.cancelled() {
			return nil, domain.CancelledError(fmt.Sprintf("operation %q was cancelled", name), nil)
		}

		opts.report(name, ProgressInfo{Stage: StageLoading, Message: "Loading PDF document"})
		if err := raw.Load(); err != nil {
			return nil, err
		}

		if opts.cancelled() {
			_ = raw.Close()
			return nil, domain.CancelledError(fmt.Sprintf("operation %q was cancelled", name), nil)
		}

		pipeline, err := extract.NewPipeline(raw, c.cfg, c.log)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}

		doc, _ := raw.Content()
		opts.report(name, ProgressInfo{
			Stage:      StagePreprocessing,
			TotalPages: doc.PageCount(),
			Message:    "Extracting pages and images",
		})
		if err := pipeline.Process(); err != nil {
			_ = raw.Close()
			return nil, err
		}

		opts.report(name, ProgressInfo{
			Stage:       StageCompleted,
			CurrentPage: pipeline.PageCount(),
			TotalPages:  pipeline.PageCount(),
			Message:     "PDF processing completed",
		})
		return &Result{Pipeline: pipeline, raw: raw}, nil
	})
}
