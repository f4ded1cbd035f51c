package usecase

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// Bootstrapper downloads the conversion tool source into the local checkout
type Bootstrapper struct {
	archive interfaces.ArchiveSource
	cfg     *model.Config
}

// NewBootstrapper creates a new instance of Bootstrapper
func NewBootstrapper(archive interfaces.ArchiveSource, cfg *model.Config) *Bootstrapper {
	return &Bootstrapper{
		archive: archive,
		cfg:     cfg,
	}
}

// ArchiveURL returns the source archive URL of the configured version for ref
func (x *Bootstrapper) ArchiveURL(ref types.RefType) string {
	return fmt.Sprintf("%s/%s/%s.tar.gz", strings.TrimRight(x.cfg.ArchiveBaseURL, "/"), ref, x.cfg.TransformersVersion)
}

// RefType reports whether the configured version is published as a tag. Any probe
// failure falls back to a branch.
func (x *Bootstrapper) RefType(ctx context.Context) types.RefType {
	logger := ctxlog.From(ctx)
	url := x.ArchiveURL(types.RefTypeTag)

	status, err := x.archive.Probe(ctx, url)
	if err != nil {
		logger.Warn("Failed to check tags, defaulting to heads", "url", url, "error", err)
		return types.RefTypeBranch
	}
	if status != http.StatusOK {
		logger.Warn("Tag archive not available, defaulting to heads", "url", url, "status", status)
		return types.RefTypeBranch
	}

	return types.RefTypeTag
}

// Setup ensures the checkout exists. An existing checkout is used as is.
func (x *Bootstrapper) Setup(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	if _, err := os.Stat(x.cfg.RepoPath); err == nil {
		return nil
	}

	ref := x.RefType(ctx)
	url := x.ArchiveURL(ref)
	archivePath := x.cfg.ArchivePath()

	defer func() {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove archive", "path", archivePath, "error", err)
		}
	}()

	logger.Info("Downloading repository archive",
		"url", url,
		"ref_type", ref,
		"version", x.cfg.TransformersVersion,
	)

	if err := x.download(ctx, url, archivePath); err != nil {
		return goerr.Wrap(err, "failed to setup repository", goerr.T(types.ErrTagSetup), goerr.V("url", url))
	}

	if err := x.extract(ctx, archivePath); err != nil {
		return goerr.Wrap(err, "failed to setup repository", goerr.T(types.ErrTagSetup), goerr.V("url", url))
	}

	logger.Info("Repository downloaded and extracted successfully", "repo_path", x.cfg.RepoPath)

	return nil
}

func (x *Bootstrapper) download(ctx context.Context, url, archivePath string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create archive directory")
	}

	n, err := x.archive.Download(ctx, url, archivePath)
	if err != nil {
		return err
	}

	ctxlog.From(ctx).Info("Downloaded archive", "path", archivePath, "size", humanize.Bytes(uint64(n)))
	return nil
}

// extract unpacks the archive into a temporary directory beside the checkout and
// renames the first extracted entry into place
func (x *Bootstrapper) extract(ctx context.Context, archivePath string) error {
	logger := ctxlog.From(ctx)

	tempDir, err := os.MkdirTemp(filepath.Dir(x.cfg.RepoPath), ".onnxify-extract-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary directory")
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warn("Failed to remove temporary directory", "path", tempDir, "error", err)
		}
	}()

	logger.Debug("Created temporary directory", "temp_dir", tempDir)

	count, err := extractTarGz(ctx, archivePath, tempDir)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return goerr.Wrap(err, "failed to read extracted directory", goerr.V("temp_dir", tempDir))
	}
	if len(entries) == 0 {
		return goerr.New("archive is empty", goerr.V("path", archivePath))
	}

	extracted := filepath.Join(tempDir, entries[0].Name())
	if err := os.Rename(extracted, x.cfg.RepoPath); err != nil {
		return goerr.Wrap(err, "failed to move extracted folder into place",
			goerr.V("from", extracted),
			goerr.V("to", x.cfg.RepoPath),
		)
	}

	logger.Debug("Extracted archive", "entries", count, "folder", entries[0].Name())
	return nil
}

// extractTarGz extracts a gzip compressed tarball into destDir and returns the
// number of entries written. All writes go through an os.Root on destDir, so no
// entry can reach outside of it, symlinks included.
func extractTarGz(ctx context.Context, archivePath, destDir string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open archive", goerr.V("path", archivePath))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create gzip reader", goerr.V("path", archivePath))
	}
	defer gz.Close()

	root, err := os.OpenRoot(destDir)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open extraction directory", goerr.V("path", destDir))
	}
	defer root.Close()

	tr := tar.NewReader(gz)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, goerr.Wrap(err, "failed to read tar entry", goerr.V("path", archivePath))
		}

		written, err := extractEntry(ctx, tr, hdr, root)
		if err != nil {
			return count, goerr.Wrap(err, "failed to extract entry", goerr.V("name", hdr.Name))
		}
		if written {
			count++
		}
	}

	return count, nil
}

// extractEntry writes a single tar entry below root. It reports false for entries
// that are intentionally skipped.
func extractEntry(ctx context.Context, r io.Reader, hdr *tar.Header, root *os.Root) (bool, error) {
	if hdr.Typeflag == tar.TypeXGlobalHeader {
		// GitHub archives start with a pax header holding the commit id
		return false, nil
	}

	name := filepath.Clean(filepath.FromSlash(hdr.Name))
	if name == "." {
		return false, nil
	}

	// Security check: prevent path traversal attacks
	if !filepath.IsLocal(name) {
		return false, goerr.New("invalid file path detected", goerr.V("file", hdr.Name))
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := root.MkdirAll(name, hdr.FileInfo().Mode().Perm()|0700); err != nil {
			return false, goerr.Wrap(err, "failed to create directory", goerr.V("path", name))
		}
		return true, nil

	case tar.TypeReg:
		if err := root.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return false, goerr.Wrap(err, "failed to create parent directories", goerr.V("path", filepath.Dir(name)))
		}

		out, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
		if err != nil {
			return false, goerr.Wrap(err, "failed to create destination file", goerr.V("path", name))
		}
		defer out.Close()

		if _, err := io.Copy(out, r); err != nil {
			return false, goerr.Wrap(err, "failed to copy file content", goerr.V("path", name))
		}
		return true, nil

	case tar.TypeSymlink:
		target := filepath.FromSlash(hdr.Linkname)
		if filepath.IsAbs(target) || !filepath.IsLocal(filepath.Join(filepath.Dir(name), target)) {
			return false, goerr.New("symlink points outside of archive", goerr.V("file", hdr.Name), goerr.V("link", hdr.Linkname))
		}
		if err := root.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return false, goerr.Wrap(err, "failed to create parent directories", goerr.V("path", filepath.Dir(name)))
		}
		if err := root.Symlink(hdr.Linkname, name); err != nil {
			return false, goerr.Wrap(err, "failed to create symlink", goerr.V("path", name))
		}
		return true, nil

	default:
		ctxlog.From(ctx).Debug("Skipping unsupported tar entry", "name", hdr.Name, "type", hdr.Typeflag)
		return false, nil
	}
}
