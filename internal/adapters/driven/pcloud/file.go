package pcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
)

// Ensure fileOps implements the port.
var _ driven.FileOps = (*fileOps)(nil)

// fileOps performs file transfers for one account.
type fileOps struct {
	client  *Client
	account *domain.Account
}

// uploadResponse is the uploadfile response. Metadata is a list because
// the endpoint accepts multiple files per request; we always send one.
type uploadResponse struct {
	Metadata []struct {
		FileID int64  `json:"fileid"`
		Name   string `json:"name"`
		Size   int64  `json:"size"`
	} `json:"metadata"`
}

// Upload sends a local file to the given folder as one multipart POST.
// Progress updates flow to sink while the body streams; sink may be nil.
func (f *fileOps) Upload(ctx context.Context, localPath string, folderID int64, filename string, sink domain.ProgressSink) (*domain.UploadResult, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}
	if filename == "" {
		filename = filepath.Base(localPath)
	}

	if err := f.client.limiter.Wait(ctx); err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	params := authParams(f.account)
	params.Set("folderid", strconv.FormatInt(folderID, 10))
	reqURL := fmt.Sprintf("%s/uploadfile?%s", f.client.host(f.account.Location), params.Encode())

	src := newProgressReader(file, info.Size(), filename, sink)
	body, contentType := multipartBody(src, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		src.fail()
		return nil, &domain.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.client.httpClient.Do(req)
	if err != nil {
		src.fail()
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		src.fail()
		return nil, &domain.TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		src.fail()
		return nil, &domain.TransportError{Err: fmt.Errorf("uploadfile: HTTP %d", resp.StatusCode)}
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		src.fail()
		return nil, &domain.ProtocolError{Detail: "uploadfile: undecodable response"}
	}
	if env.Result != 0 {
		src.fail()
		return nil, &domain.APIError{Code: env.Result, Message: env.Error}
	}

	var decoded uploadResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil || len(decoded.Metadata) == 0 {
		src.fail()
		return nil, &domain.ProtocolError{Detail: "uploadfile: missing file metadata"}
	}

	src.complete()
	meta := decoded.Metadata[0]
	return &domain.UploadResult{
		FileID: meta.FileID,
		Name:   meta.Name,
		Size:   meta.Size,
	}, nil
}

// multipartBody streams src as a single multipart file part. The writer
// side runs in its own goroutine feeding the request body pipe.
func multipartBody(src io.Reader, filename string) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType()
}

// progressEmitInterval caps how often running updates are emitted.
const progressEmitInterval = 100 * time.Millisecond

// progressReader counts bytes flowing through it and reports them to a
// progress sink.
type progressReader struct {
	r        io.Reader
	total    int64
	done     int64
	name     string
	sink     domain.ProgressSink
	started  time.Time
	lastEmit time.Time
}

func newProgressReader(r io.Reader, total int64, name string, sink domain.ProgressSink) *progressReader {
	return &progressReader{
		r:       r,
		total:   total,
		name:    name,
		sink:    sink,
		started: time.Now(),
	}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.done += int64(n)
		if p.sink != nil && time.Since(p.lastEmit) >= progressEmitInterval {
			p.lastEmit = time.Now()
			p.sink.OnProgress(p.update(domain.ProgressRunning))
		}
	}
	return n, err
}

// complete emits the final successful update.
func (p *progressReader) complete() {
	if p.sink != nil {
		p.sink.OnProgress(p.update(domain.ProgressCompleted))
	}
}

// fail emits the final failure update.
func (p *progressReader) fail() {
	if p.sink != nil {
		p.sink.OnProgress(p.update(domain.ProgressError))
	}
}

func (p *progressReader) update(status domain.ProgressStatus) domain.ProgressUpdate {
	var percent float64
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total) * 100
	}
	var bytesPerSec float64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		bytesPerSec = float64(p.done) / elapsed
	}
	return domain.ProgressUpdate{
		BytesDone:  p.done,
		BytesTotal: p.total,
		Percent:    percent,
		Rate:       bytesPerSec,
		Status:     status,
		Name:       p.name,
	}
}
