// Package magicforest is the outer collaborator around internal/magic: it
// compiles rule sources into a Forest once, then serves repeated
// Identify calls against it, adding the pieces a bare compiler+matcher
// doesn't own — special file types, a byte-signature fallback, result
// caching, and request-correlated logging.
package magicforest

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gomime/magicforest/internal/cache"
	"github.com/gomime/magicforest/internal/logging"
	"github.com/gomime/magicforest/internal/magic"
)

// Result is the outcome of one identification call.
type Result struct {
	MimeType    string
	Specificity float64
	// Source names which layer produced MimeType: "magic", "fallback",
	// "default", or "stat" (a special file type resolved without reading
	// content at all).
	Source string
}

// Options configures a Detector. The zero value is valid: it compiles no
// rules (an empty forest, so every call falls through to DefaultMimeType),
// uses the most-specific match mode, and leaves the byte-signature
// fallback disabled.
type Options struct {
	// RuleFiles are magic rule files read from disk at construction time.
	RuleFiles []string
	// RuleReaders are named, in-memory rule sources — e.g. an embedded
	// default database. The name is used only for diagnostics.
	RuleReaders map[string]io.Reader

	Mode magic.MatchMode

	DefaultMimeType string
	EnableFallback  bool

	Cache  cache.Cache
	Logger *logrus.Logger
}

// Detector holds one compiled Forest and serves Identify/IdentifyFile
// concurrently; both the Forest and a Detector's Options are read-only
// after construction, so no locking is needed on the hot path.
type Detector struct {
	forest *magic.Forest
	opts   Options
	log    *logrus.Logger
}

// New builds a Detector from the zero Options: no rules, no fallback, no
// cache. Use NewWithOptions to supply rule sources.
func New() (*Detector, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions compiles every configured rule source into a single
// Forest and returns a ready-to-use Detector. Per-line diagnostics are
// logged as a single warning per source, not raised as errors — a
// malformed rule file degrades detection, it doesn't stop the process
// (spec §7).
func NewWithOptions(opts Options) (*Detector, error) {
	compiler := magic.NewCompiler()
	forest := &magic.Forest{}

	log := opts.Logger
	if log == nil {
		log = logging.New("info", "text")
	}

	for _, path := range opts.RuleFiles {
		f, diags, err := compiler.CompileFile(path)
		if err != nil {
			return nil, fmt.Errorf("magicforest: %w", err)
		}
		forest.Roots = append(forest.Roots, f.Roots...)
		if len(diags) > 0 {
			log.WithField("diagnostics", len(diags)).Warn(logging.WrapCompileDiagnostics(path, len(diags)))
		}
	}
	for name, r := range opts.RuleReaders {
		f, diags := compiler.Compile(r, name)
		forest.Roots = append(forest.Roots, f.Roots...)
		if len(diags) > 0 {
			log.WithField("diagnostics", len(diags)).Warn(logging.WrapCompileDiagnostics(name, len(diags)))
		}
	}

	if opts.DefaultMimeType == "" {
		opts.DefaultMimeType = "application/octet-stream"
	}

	return &Detector{forest: forest, opts: opts, log: log}, nil
}

// IdentifyFile identifies the file at path. Directories, symlinks, and
// device/pipe/socket special files are resolved from os.Lstat alone,
// without opening or reading content.
func (d *Detector) IdentifyFile(path string) (Result, error) {
	requestID := uuid.NewString()
	entry := logging.WithRequestID(d.log, requestID).WithField("path", path)

	info, err := os.Lstat(path)
	if err != nil {
		return Result{}, fmt.Errorf("magicforest: stat %s: %w", path, err)
	}

	if special, ok := specialFileType(info); ok {
		entry.WithField("mime_type", special).Debug("resolved special file type")
		return Result{MimeType: special, Source: "stat"}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("magicforest: open %s: %w", path, err)
	}
	defer f.Close()

	maxLen := d.forest.MaxReadLength()
	if maxLen <= 0 {
		maxLen = 1
	}
	window, err := readWindow(f, maxLen)
	if err != nil {
		return Result{}, fmt.Errorf("magicforest: read %s: %w", path, err)
	}

	key := digestKey(window)
	if cached, ok, err := d.cacheGet(key); err != nil {
		entry.WithError(err).Warn("cache lookup failed")
	} else if ok {
		entry.WithField("mime_type", cached.MimeType).Debug("cache hit")
		return cached, nil
	}

	src := magic.NewReaderAtSource(f)
	result, err := d.evaluate(src, requestID)
	if err != nil {
		return Result{}, err
	}
	if result.MimeType == "" && d.opts.EnableFallback {
		if mt, err := mimetype.DetectFile(path); err == nil {
			result = Result{MimeType: mt.String(), Source: "fallback"}
		}
	}
	if result.MimeType == "" {
		result = Result{MimeType: d.opts.DefaultMimeType, Source: "default"}
	}

	d.cacheSet(key, result)
	entry.WithField("mime_type", result.MimeType).WithField("source", result.Source).Debug("identified")
	return result, nil
}

// Identify identifies content read from r. r is wrapped in a bufio.Reader
// sized to the forest's maximum read length, so the fallback detector
// (when enabled) can read starting from byte zero even though the magic
// matcher already peeked the same window.
func (d *Detector) Identify(r io.Reader) (Result, error) {
	requestID := uuid.NewString()
	entry := logging.WithRequestID(d.log, requestID)

	maxLen := d.forest.MaxReadLength()
	if maxLen <= 0 {
		maxLen = 1
	}
	br := bufio.NewReaderSize(r, int(maxLen)+1)

	window, _ := br.Peek(int(maxLen))
	key := digestKey(window)
	if cached, ok, err := d.cacheGet(key); err != nil {
		entry.WithError(err).Warn("cache lookup failed")
	} else if ok {
		entry.WithField("mime_type", cached.MimeType).Debug("cache hit")
		return cached, nil
	}

	src, err := magic.NewStreamSource(br, maxLen)
	if err != nil {
		return Result{}, fmt.Errorf("magicforest: %w", err)
	}
	result, err := d.evaluate(src, requestID)
	if err != nil {
		return Result{}, err
	}
	if result.MimeType == "" && d.opts.EnableFallback {
		if mt, err := mimetype.DetectReader(br); err == nil {
			result = Result{MimeType: mt.String(), Source: "fallback"}
		}
	}
	if result.MimeType == "" {
		result = Result{MimeType: d.opts.DefaultMimeType, Source: "default"}
	}

	d.cacheSet(key, result)
	entry.WithField("mime_type", result.MimeType).WithField("source", result.Source).Debug("identified")
	return result, nil
}

// IdentifyAll returns every rule that matched content read from r,
// unranked, regardless of the Detector's configured Mode — for callers
// that want to reason about all contributing rules rather than the
// single most specific one (e.g. a diagnostics endpoint).
func (d *Detector) IdentifyAll(r io.Reader) ([]Result, error) {
	requestID := uuid.NewString()

	maxLen := d.forest.MaxReadLength()
	if maxLen <= 0 {
		maxLen = 1
	}
	br := bufio.NewReaderSize(r, int(maxLen)+1)
	src, err := magic.NewStreamSource(br, maxLen)
	if err != nil {
		return nil, fmt.Errorf("magicforest: %w", err)
	}

	matches, err := magic.Evaluate(d.forest, src, magic.ModeCollectAll)
	if err != nil {
		return nil, fmt.Errorf("magicforest[%s]: %w", requestID, err)
	}
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{MimeType: m.MimeType, Specificity: m.Specificity, Source: "magic"}
	}
	return results, nil
}

// evaluate runs the compiled forest against src and reports a SourceError
// as a plain Go error (never swallowed), leaving fallback/default
// resolution to the caller when there simply was no match.
func (d *Detector) evaluate(src magic.Source, requestID string) (Result, error) {
	results, err := magic.Evaluate(d.forest, src, d.opts.Mode)
	if err != nil {
		var srcErr *magic.SourceError
		if errors.As(err, &srcErr) {
			return Result{}, fmt.Errorf("magicforest[%s]: %w", requestID, err)
		}
		return Result{}, fmt.Errorf("magicforest[%s]: %w", requestID, err)
	}
	if len(results) == 0 {
		return Result{}, nil
	}
	best, ok := magic.Select(results)
	if !ok {
		return Result{}, nil
	}
	return Result{MimeType: best.MimeType, Specificity: best.Specificity, Source: "magic"}, nil
}

func (d *Detector) cacheGet(key string) (Result, bool, error) {
	if d.opts.Cache == nil {
		return Result{}, false, nil
	}
	entry, ok, err := d.opts.Cache.Get(context.Background(), key)
	if err != nil || !ok {
		return Result{}, false, err
	}
	return Result{MimeType: entry.MimeType, Specificity: entry.Specificity, Source: "magic"}, true, nil
}

func (d *Detector) cacheSet(key string, result Result) {
	if d.opts.Cache == nil || result.MimeType == "" {
		return
	}
	_ = d.opts.Cache.Set(context.Background(), key, cache.Entry{
		MimeType:    result.MimeType,
		Specificity: result.Specificity,
	})
}

// specialFileType reports the pseudo-MIME-type for a non-regular file,
// resolved from os.FileInfo alone, without opening the file.
func specialFileType(info os.FileInfo) (string, bool) {
	switch {
	case info.IsDir():
		return "inode/directory", true
	case info.Mode()&os.ModeSymlink != 0:
		return "inode/symlink", true
	case info.Mode()&os.ModeCharDevice != 0:
		return "inode/chardevice", true
	case info.Mode()&os.ModeDevice != 0:
		return "inode/blockdevice", true
	case info.Mode()&os.ModeNamedPipe != 0:
		return "inode/fifo", true
	case info.Mode()&os.ModeSocket != 0:
		return "inode/socket", true
	default:
		return "", false
	}
}

// readWindow reads up to n bytes from r, tolerating a short read (the
// file is smaller than the forest's widest rule).
func readWindow(r io.Reader, n int64) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func digestKey(window []byte) string {
	sum := sha256.Sum256(window)
	return hex.EncodeToString(sum[:])
}
