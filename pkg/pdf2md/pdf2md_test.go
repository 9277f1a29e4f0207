package pdf2md_test

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenticmd/pdf2md/internal/domain"
	"github.com/agenticmd/pdf2md/internal/engine/enginetest"
	"github.com/agenticmd/pdf2md/pkg/pdf2md"
)

func quietConfig() pdf2md.Config {
	cfg := pdf2md.DefaultConfig()
	cfg.LogProgress = false
	return cfg
}

func fakeClient(t *testing.T, doc *enginetest.Document) (*pdf2md.Client, *enginetest.Engine) {
	t.Helper()
	eng := &enginetest.Engine{Doc: doc}
	client, err := pdf2md.NewClient(quietConfig(), pdf2md.WithEngine(eng), pdf2md.WithLogWriter(io.Discard))
	require.NoError(t, err)
	return client, eng
}

func twoPageDoc() *enginetest.Document {
	return &enginetest.Document{
		Pages: []enginetest.Page{
			{Text: "first page", Images: []int{1}, BBoxes: map[int]domain.Rect{1: {X1: 5, Y1: 5}}},
			{Text: "second page"},
		},
		Objects: map[int]image.Image{1: enginetest.UniformImage(90, 8)},
	}
}

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

// captureReporter records progress callbacks; safe for concurrent use.
type captureReporter struct {
	mu     sync.Mutex
	stages []pdf2md.Stage

	// onStage, when set, runs under the lock for each report.
	onStage func(pdf2md.Stage)
}

func (r *captureReporter) ReportProgress(_ string, info pdf2md.ProgressInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, info.Stage)
	if r.onStage != nil {
		r.onStage(info.Stage)
	}
}

func (r *captureReporter) seen() []pdf2md.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pdf2md.Stage(nil), r.stages...)
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	cfg := pdf2md.DefaultConfig()
	cfg.ImageFormat = "gif"
	_, err := pdf2md.NewClient(cfg)
	require.Error(t, err)
	assert.True(t, pdf2md.IsKind(err, pdf2md.KindConfiguration))
}

func TestProcessFile(t *testing.T) {
	client, eng := fakeClient(t, twoPageDoc())
	path := writeTempPDF(t)

	result, err := client.ProcessFile(path)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, path, eng.LastPath)
	assert.Equal(t, 2, result.PageCount())
	assert.Equal(t, 1, result.ImageCount())

	page, ok := result.GetPage(1)
	require.True(t, ok)
	assert.Contains(t, page.Text, "first page")
}

func TestProcessBase64(t *testing.T) {
	client, eng := fakeClient(t, twoPageDoc())
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF fake"))

	result, err := client.ProcessBase64(payload)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, []byte("%PDF fake"), eng.LastBytes)
	assert.Equal(t, 2, result.PageCount())
}

func TestProcessNeitherSourceFails(t *testing.T) {
	client, _ := fakeClient(t, twoPageDoc())

	_, err := client.ProcessBase64("")
	require.Error(t, err)
	assert.True(t, pdf2md.IsKind(err, pdf2md.KindInitialization))
}

func TestResultCloseReleasesDocument(t *testing.T) {
	doc := twoPageDoc()
	client, _ := fakeClient(t, doc)

	result, err := client.ProcessFile(writeTempPDF(t))
	require.NoError(t, err)

	require.NoError(t, result.Close())
	assert.True(t, doc.Closed)
	require.NoError(t, result.Close())
}

func TestProcessFailureClosesDocument(t *testing.T) {
	doc := &enginetest.Document{
		Pages: []enginetest.Page{{TextErr: errors.New("mangled page")}},
	}
	client, _ := fakeClient(t, doc)

	_, err := client.ProcessFile(writeTempPDF(t))
	require.Error(t, err)
	assert.True(t, pdf2md.IsKind(err, pdf2md.KindProcessing))
	assert.True(t, doc.Closed)
}

func TestProcessFileAsync(t *testing.T) {
	client, _ := fakeClient(t, twoPageDoc())
	reporter := &captureReporter{}

	op, err := client.ProcessFileAsync(context.Background(), writeTempPDF(t), &pdf2md.ProcessOptions{Reporter: reporter})
	require.NoError(t, err)

	result, err := op.Await(context.Background())
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 2, result.PageCount())
	assert.Equal(t, []pdf2md.Stage{
		pdf2md.StageInitialization,
		pdf2md.StageLoading,
		pdf2md.StagePreprocessing,
		pdf2md.StageCompleted,
	}, reporter.seen())
}

func TestProcessBase64Async(t *testing.T) {
	client, _ := fakeClient(t, twoPageDoc())
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF fake"))

	op, err := client.ProcessBase64Async(context.Background(), payload, nil)
	require.NoError(t, err)

	result, err := op.Await(context.Background())
	require.NoError(t, err)
	defer result.Close()
	assert.Equal(t, 2, result.PageCount())
}

func TestAsyncPreCancelledToken(t *testing.T) {
	client, _ := fakeClient(t, twoPageDoc())
	token := pdf2md.NewCancellationToken()
	token.Cancel()

	op, err := client.ProcessFileAsync(context.Background(), writeTempPDF(t), &pdf2md.ProcessOptions{Token: token})
	require.NoError(t, err)

	_, err = op.Await(context.Background())
	require.Error(t, err)
	assert.True(t, pdf2md.IsKind(err, pdf2md.KindCancelled))
}

func TestAsyncCancelBetweenStages(t *testing.T) {
	doc := twoPageDoc()
	client, _ := fakeClient(t, doc)
	token := pdf2md.NewCancellationToken()
	reporter := &captureReporter{onStage: func(s pdf2md.Stage) {
		if s == pdf2md.StageLoading {
			token.Cancel()
		}
	}}

	op, err := client.ProcessFileAsync(context.Background(), writeTempPDF(t), &pdf2md.ProcessOptions{
		Token:    token,
		Reporter: reporter,
	})
	require.NoError(t, err)

	_, err = op.Await(context.Background())
	require.Error(t, err)
	assert.True(t, pdf2md.IsKind(err, pdf2md.KindCancelled))
	assert.True(t, doc.Closed)
	assert.NotContains(t, reporter.seen(), pdf2md.StageCompleted)
}

func TestAsyncOperationCancel(t *testing.T) {
	client, _ := fakeClient(t, twoPageDoc())
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF fake"))

	op, err := client.ProcessBase64Async(context.Background(), payload, nil)
	require.NoError(t, err)
	op.Cancel()

	// The run may already have finished; otherwise the operation must
	// settle as cancelled.
	result, err := op.Await(context.Background())
	if err != nil {
		assert.True(t, pdf2md.IsKind(err, pdf2md.KindCancelled))
		return
	}
	result.Close()
}
