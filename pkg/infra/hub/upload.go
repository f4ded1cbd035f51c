package hub

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

const sampleSize = 512

// UploadFolder commits all regular files under req.FolderPath to req.RepoID.
// Files the hub classifies as LFS are transferred through the git-lfs batch API
// before the commit references them by hash.
func (c *client) UploadFolder(ctx context.Context, token types.Token, req *model.UploadRequest) (*model.CommitInfo, error) {
	logger := ctxlog.From(ctx)

	revision := req.Revision
	if revision == "" {
		revision = defaultRevision
	}
	summary := req.Summary
	if summary == "" {
		summary = defaultSummary
	}

	files, err := collectFiles(req.FolderPath, req.PathInRepo)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("No files to upload, skipping commit",
			"folder", req.FolderPath,
			"repo_id", req.RepoID,
		)
		return &model.CommitInfo{}, nil
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	logger.Info("Uploading folder",
		"repo_id", req.RepoID,
		"path_in_repo", req.PathInRepo,
		"files", len(files),
		"size", humanize.Bytes(uint64(total)),
	)

	if err := c.preupload(ctx, token, req.RepoID, revision, files); err != nil {
		return nil, goerr.Wrap(err, "failed to determine upload modes", goerr.V("repo_id", req.RepoID))
	}

	var lfsFiles []*model.UploadFile
	for _, f := range files {
		if f.Mode == model.UploadModeLFS {
			lfsFiles = append(lfsFiles, f)
		}
	}
	if len(lfsFiles) > 0 {
		if err := c.uploadLFS(ctx, token, req.RepoID, revision, lfsFiles); err != nil {
			return nil, goerr.Wrap(err, "failed to upload LFS files", goerr.V("repo_id", req.RepoID))
		}
	}

	info, err := c.commit(ctx, token, req.RepoID, revision, summary, files)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create commit", goerr.V("repo_id", req.RepoID))
	}
	info.Files = len(files)

	logger.Info("Folder uploaded",
		"repo_id", req.RepoID,
		"commit_url", info.CommitURL,
	)

	return info, nil
}

// collectFiles walks root and hashes every regular file. Paths in the repository
// are prefixed with pathInRepo and always use forward slashes.
func collectFiles(root, pathInRepo string) ([]*model.UploadFile, error) {
	var files []*model.UploadFile

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve relative path", goerr.V("path", p))
		}

		f, err := hashFile(p)
		if err != nil {
			return err
		}
		f.PathInRepo = path.Join(pathInRepo, filepath.ToSlash(rel))
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to collect files", goerr.V("folder", root))
	}

	return files, nil
}

func hashFile(p string) (*model.UploadFile, error) {
	fd, err := os.Open(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", p))
	}
	defer fd.Close()

	sample := make([]byte, sampleSize)
	n, err := io.ReadFull(fd, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", p))
	}
	sample = sample[:n]

	h := sha256.New()
	h.Write(sample)
	rest, err := io.Copy(h, fd)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to hash file", goerr.V("path", p))
	}

	return &model.UploadFile{
		LocalPath: p,
		Size:      int64(n) + rest,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		Sample:    sample,
	}, nil
}

type preuploadFile struct {
	Path   string `json:"path"`
	Sample string `json:"sample"`
	Size   int64  `json:"size"`
}

type preuploadRequest struct {
	Files []preuploadFile `json:"files"`
}

type preuploadResponse struct {
	Files []struct {
		Path         string `json:"path"`
		UploadMode   string `json:"uploadMode"`
		ShouldIgnore bool   `json:"shouldIgnore"`
	} `json:"files"`
}

// preupload asks the hub which files must go through LFS
func (c *client) preupload(ctx context.Context, token types.Token, repoID, revision string, files []*model.UploadFile) error {
	body := preuploadRequest{}
	for _, f := range files {
		body.Files = append(body.Files, preuploadFile{
			Path:   f.PathInRepo,
			Sample: base64.StdEncoding.EncodeToString(f.Sample),
			Size:   f.Size,
		})
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.repoAPIURL(repoID, "preupload", revision), body)
	if err != nil {
		return err
	}
	setAuth(req, token)

	var resp preuploadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return err
	}

	modes := make(map[string]model.UploadMode, len(resp.Files))
	for _, f := range resp.Files {
		modes[f.Path] = model.UploadMode(f.UploadMode)
	}
	for _, f := range files {
		f.Mode = model.UploadModeRegular
		if modes[f.PathInRepo] == model.UploadModeLFS {
			f.Mode = model.UploadModeLFS
		}
	}

	return nil
}

type lfsObject struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

type lfsBatchRequest struct {
	Operation string      `json:"operation"`
	Transfers []string    `json:"transfers"`
	Objects   []lfsObject `json:"objects"`
	HashAlgo  string      `json:"hash_algo"`
	Ref       struct {
		Name string `json:"name"`
	} `json:"ref"`
}

type lfsAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header"`
}

type lfsBatchResponse struct {
	Objects []struct {
		OID     string `json:"oid"`
		Size    int64  `json:"size"`
		Actions struct {
			Upload *lfsAction `json:"upload"`
			Verify *lfsAction `json:"verify"`
		} `json:"actions"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"objects"`
}

const lfsMediaType = "application/vnd.git-lfs+json"

// uploadLFS negotiates LFS transfers and uploads the objects the hub does not have yet
func (c *client) uploadLFS(ctx context.Context, token types.Token, repoID, revision string, files []*model.UploadFile) error {
	logger := ctxlog.From(ctx)

	batch := lfsBatchRequest{
		Operation: "upload",
		Transfers: []string{"basic"},
		HashAlgo:  "sha256",
	}
	batch.Ref.Name = revision
	byOID := make(map[string]*model.UploadFile, len(files))
	for _, f := range files {
		batch.Objects = append(batch.Objects, lfsObject{OID: f.SHA256, Size: f.Size})
		byOID[f.SHA256] = f
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/"+repoID+".git/info/lfs/objects/batch", batch)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", lfsMediaType)
	req.Header.Set("Accept", lfsMediaType)
	setAuth(req, token)

	var resp lfsBatchResponse
	if err := c.doJSON(req, &resp); err != nil {
		return err
	}

	for _, obj := range resp.Objects {
		if obj.Error != nil {
			return goerr.New("LFS object rejected",
				goerr.V("oid", obj.OID),
				goerr.V("code", obj.Error.Code),
				goerr.V("message", obj.Error.Message),
			)
		}

		f, ok := byOID[obj.OID]
		if !ok {
			return goerr.New("unexpected LFS object in batch response", goerr.V("oid", obj.OID))
		}

		if obj.Actions.Upload == nil {
			logger.Debug("LFS object already present", "path", f.PathInRepo, "oid", obj.OID)
			continue
		}
		if _, chunked := obj.Actions.Upload.Header["chunk_size"]; chunked {
			return goerr.New("multipart LFS transfer is not supported",
				goerr.V("path", f.PathInRepo),
				goerr.V("size", humanize.Bytes(uint64(f.Size))),
			)
		}

		if err := c.putLFSObject(ctx, obj.Actions.Upload, f); err != nil {
			return err
		}

		if obj.Actions.Verify != nil {
			if err := c.verifyLFSObject(ctx, token, obj.Actions.Verify, f); err != nil {
				return err
			}
		}

		logger.Debug("LFS object uploaded",
			"path", f.PathInRepo,
			"size", humanize.Bytes(uint64(f.Size)),
		)
	}

	return nil
}

func (c *client) putLFSObject(ctx context.Context, action *lfsAction, f *model.UploadFile) error {
	fd, err := os.Open(f.LocalPath)
	if err != nil {
		return goerr.Wrap(err, "failed to open LFS file", goerr.V("path", f.LocalPath))
	}
	defer fd.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, action.Href, fd)
	if err != nil {
		return goerr.Wrap(err, "failed to create LFS upload request")
	}
	req.ContentLength = f.Size
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}

	if err := c.doJSON(req, nil); err != nil {
		return goerr.Wrap(err, "failed to upload LFS object", goerr.V("path", f.PathInRepo))
	}
	return nil
}

func (c *client) verifyLFSObject(ctx context.Context, token types.Token, action *lfsAction, f *model.UploadFile) error {
	req, err := newJSONRequest(ctx, http.MethodPost, action.Href, lfsObject{OID: f.SHA256, Size: f.Size})
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", lfsMediaType)
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}
	setAuth(req, token)

	if err := c.doJSON(req, nil); err != nil {
		return goerr.Wrap(err, "failed to verify LFS object", goerr.V("path", f.PathInRepo))
	}
	return nil
}

type commitLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type commitHeader struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type commitLFSFile struct {
	Path string `json:"path"`
	Algo string `json:"algo"`
	OID  string `json:"oid"`
}

// commit creates a commit through the NDJSON commit endpoint. Regular files are
// inlined as base64; LFS files are referenced by their already uploaded hash.
func (c *client) commit(ctx context.Context, token types.Token, repoID, revision, summary string, files []*model.UploadFile) (*model.CommitInfo, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	if err := enc.Encode(commitLine{Key: "header", Value: commitHeader{Summary: summary}}); err != nil {
		return nil, goerr.Wrap(err, "failed to encode commit header")
	}

	for _, f := range files {
		var line commitLine
		switch f.Mode {
		case model.UploadModeLFS:
			line = commitLine{Key: "lfsFile", Value: commitLFSFile{
				Path: f.PathInRepo,
				Algo: "sha256",
				OID:  f.SHA256,
			}}
		default:
			content, err := os.ReadFile(f.LocalPath)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", f.LocalPath))
			}
			line = commitLine{Key: "file", Value: commitFile{
				Content:  base64.StdEncoding.EncodeToString(content),
				Path:     f.PathInRepo,
				Encoding: "base64",
			}}
		}
		if err := enc.Encode(line); err != nil {
			return nil, goerr.Wrap(err, "failed to encode commit operation", goerr.V("path", f.PathInRepo))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.repoAPIURL(repoID, "commit", revision), &buf)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create commit request")
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	setAuth(req, token)

	var info model.CommitInfo
	if err := c.doJSON(req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
