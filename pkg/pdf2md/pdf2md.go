// Package pdf2md is the public entry point: it turns a PDF, supplied as
// a file path or a base64 payload, into a normalized, content-addressed
// intermediate representation ready for language-model consumption.
package pdf2md

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agenticmd/pdf2md/internal/async"
	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine"
	"github.com/agenticmd/pdf2md/internal/engine/fitzpdf"
	"github.com/agenticmd/pdf2md/internal/extract"
	"github.com/agenticmd/pdf2md/internal/llm"
	"github.com/agenticmd/pdf2md/internal/pdf"
)

// Re-exported data model and error types.
type (
	Config            = domain.Config
	PageRecord        = domain.PageRecord
	ImageReference    = domain.ImageReference
	Rect              = domain.Rect
	Error             = domain.Error
	ErrorKind         = domain.ErrorKind
	Stage             = domain.Stage
	ProgressInfo      = domain.ProgressInfo
	Reporter          = domain.Reporter
	CancellationToken = async.CancellationToken
	Pipeline          = extract.Pipeline
	RawDocument       = pdf.RawDocument
)

// Re-exported language-model boundary types.
type (
	Runner              = llm.Runner
	RunnerFactory       = llm.RunnerFactory
	ToolDefinition      = llm.ToolDefinition
	ToolCall            = llm.ToolCall
	Message             = llm.Message
	SystemMessage       = llm.SystemMessage
	UserMessage         = llm.UserMessage
	AIMessage           = llm.AIMessage
	ToolResponseMessage = llm.ToolResponseMessage
)

// Error kinds, for errors.As/IsKind dispatch at the call site.
const (
	KindInitialization  = domain.KindInitialization
	KindLoading         = domain.KindLoading
	KindContent         = domain.KindContent
	KindNotLoaded       = domain.KindNotLoaded
	KindBase64          = domain.KindBase64
	KindImageExtraction = domain.KindImageExtraction
	KindScreenshot      = domain.KindScreenshot
	KindTextExtraction  = domain.KindTextExtraction
	KindPageProcessing  = domain.KindPageProcessing
	KindProcessing      = domain.KindProcessing
	KindConfiguration   = domain.KindConfiguration
	KindCancelled       = domain.KindCancelled
)

// Progress stages reported during asynchronous processing.
const (
	StageInitialization = domain.StageInitialization
	StageLoading        = domain.StageLoading
	StagePreprocessing  = domain.StagePreprocessing
	StageFinalization   = domain.StageFinalization
	StageCompleted      = domain.StageCompleted
)

// Constructors and helpers re-exported from internal packages.
var (
	DefaultConfig                   = domain.DefaultConfig
	LoadConfigFile                  = domain.LoadConfigFile
	LoadConfigEnv                   = domain.LoadConfigEnv
	IsKind                          = domain.IsKind
	NewCancellationToken            = async.NewCancellationToken
	NewCancellationTokenWithTimeout = async.NewCancellationTokenWithTimeout
	ToolResponseFromResult          = llm.ToolResponseFromResult
	NewToolCallID                   = llm.NewToolCallID
)

// Operation tracks an in-flight asynchronous processing run.
type Operation = async.Operation[*Result]

// Client wires the document engine, the worker executor and the
// extraction configuration together.
type Client struct {
	cfg  domain.Config
	eng  engine.Engine
	exec *async.Executor
	log  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithEngine substitutes the native document engine. Used by in-module
// tests; production callers keep the default MuPDF/pdfcpu adapter.
func WithEngine(eng engine.Engine) Option {
	return func(c *Client) { c.eng = eng }
}

// WithExecutor substitutes the bounded executor shared by asynchronous
// operations.
func WithExecutor(exec *async.Executor) Option {
	return func(c *Client) { c.exec = exec }
}

// WithLogWriter redirects client logging.
func WithLogWriter(w io.Writer) Option {
	return func(c *Client) { c.log = domain.NewLogger(w, c.cfg.LogLevel) }
}

// NewClient validates cfg and builds a client. The zero Config is not
// usable; start from DefaultConfig.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:  cfg,
		eng:  fitzpdf.Engine{},
		exec: async.DefaultExecutor(),
		log:  domain.NewLogger(os.Stderr, cfg.LogLevel),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}
