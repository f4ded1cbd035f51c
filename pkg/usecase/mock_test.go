package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// MockHubClient is a mock implementation of HubClient
type MockHubClient struct {
	whoAmIFunc       func(ctx context.Context, token types.Token) (string, error)
	uploadFolderFunc func(ctx context.Context, token types.Token, req *model.UploadRequest) (*model.CommitInfo, error)

	whoAmICalls []types.Token
	uploadCalls []UploadCall
}

type UploadCall struct {
	Token types.Token
	Req   model.UploadRequest
	Files []string // names present in FolderPath at call time
}

func (m *MockHubClient) WhoAmI(ctx context.Context, token types.Token) (string, error) {
	m.whoAmICalls = append(m.whoAmICalls, token)
	if m.whoAmIFunc != nil {
		return m.whoAmIFunc(ctx, token)
	}
	return "", errors.New("mock not configured")
}

func (m *MockHubClient) UploadFolder(ctx context.Context, token types.Token, req *model.UploadRequest) (*model.CommitInfo, error) {
	call := UploadCall{Token: token, Req: *req}
	if entries, err := os.ReadDir(req.FolderPath); err == nil {
		for _, e := range entries {
			call.Files = append(call.Files, e.Name())
		}
	}
	m.uploadCalls = append(m.uploadCalls, call)

	if m.uploadFolderFunc != nil {
		return m.uploadFolderFunc(ctx, token, req)
	}
	return &model.CommitInfo{CommitOID: "abc123", Files: len(call.Files)}, nil
}

// MockArchiveSource serves archives from memory
type MockArchiveSource struct {
	probeFunc    func(ctx context.Context, url string) (int, error)
	downloadFunc func(ctx context.Context, url, dst string) (int64, error)

	probeCalls    []string
	downloadCalls []string
}

func (m *MockArchiveSource) Probe(ctx context.Context, url string) (int, error) {
	m.probeCalls = append(m.probeCalls, url)
	if m.probeFunc != nil {
		return m.probeFunc(ctx, url)
	}
	return 0, errors.New("mock not configured")
}

func (m *MockArchiveSource) Download(ctx context.Context, url, dst string) (int64, error) {
	m.downloadCalls = append(m.downloadCalls, url)
	if m.downloadFunc != nil {
		return m.downloadFunc(ctx, url, dst)
	}
	return 0, errors.New("mock not configured")
}

// serveArchive returns a downloadFunc writing data to dst
func serveArchive(data []byte) func(ctx context.Context, url, dst string) (int64, error) {
	return func(ctx context.Context, url, dst string) (int64, error) {
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return 0, err
		}
		return int64(len(data)), nil
	}
}

// MockCommandRunner records commands and optionally writes converter output
type MockCommandRunner struct {
	runFunc func(ctx context.Context, cmd *model.Command) (*model.CommandResult, error)
	calls   []model.Command
}

func (m *MockCommandRunner) Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error) {
	m.calls = append(m.calls, *cmd)
	if m.runFunc != nil {
		return m.runFunc(ctx, cmd)
	}
	return &model.CommandResult{}, nil
}

// writeOutputs creates files relative to dir, used to simulate converter output
func writeOutputs(dir string, files map[string]string) error {
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// MockNotifier collects notified jobs
type MockNotifier struct {
	mu   sync.Mutex
	jobs []model.Job
	done chan struct{}
}

func newMockNotifier() *MockNotifier {
	return &MockNotifier{done: make(chan struct{}, 16)}
}

func (m *MockNotifier) Notify(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, *job)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}
