package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/postsearch/core"
)

// DefaultExtension is the file suffix of eligible documents.
const DefaultExtension = ".mdx"

// ErrorPolicy decides what happens when a single document cannot be read.
type ErrorPolicy string

const (
	// ErrorPolicyFail aborts the whole load on the first unreadable document.
	ErrorPolicyFail ErrorPolicy = "fail"
	// ErrorPolicySkip logs unreadable documents and leaves them out.
	ErrorPolicySkip ErrorPolicy = "skip"
)

// ParseErrorPolicy converts a configuration string into an ErrorPolicy.
// An empty string selects ErrorPolicyFail.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(s)) {
	case "", ErrorPolicyFail:
		return ErrorPolicyFail, nil
	case ErrorPolicySkip:
		return ErrorPolicySkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidErrorPolicy, s)
	}
}

// Document is a loaded post: its index record and the normalized prose to embed.
type Document struct {
	Record core.DocumentRecord
	Text   string
}

// Loader walks a corpus root and loads every eligible document.
type Loader struct {
	root      string
	extension string
	policy    ErrorPolicy
	logger    *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithErrorPolicy sets the unreadable-document policy.
// Default is ErrorPolicyFail.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(l *Loader) {
		l.policy = policy
	}
}

// WithExtension overrides the eligible file suffix.
// Default is DefaultExtension.
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext != "" {
			l.extension = ext
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a loader rooted at root.
func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		root:      root,
		extension: DefaultExtension,
		policy:    ErrorPolicyFail,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "corpus-loader")
	return l
}

// Root returns the corpus root the loader walks.
func (l *Loader) Root() string {
	return l.root
}

// Load walks the corpus and returns documents in walk order.
func (l *Loader) Load(ctx context.Context) ([]Document, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCorpusRoot, l.root)
	}

	if abs, err := filepath.Abs(l.root); err == nil {
		l.logger.Info("loading corpus", "root", abs)
	}

	var docs []Document
	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == l.root {
				return fmt.Errorf("%w: %w", ErrCorpusRoot, walkErr)
			}
			return l.handleUnreadable(path, walkErr)
		}

		if d.IsDir() {
			l.logger.Info("processing directory", "dir", path)
			return nil
		}

		if !strings.HasSuffix(d.Name(), l.extension) {
			return nil
		}

		doc, err := l.loadDocument(path, d.Name())
		if err != nil {
			return l.handleUnreadable(path, err)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("corpus loaded", "documents", len(docs))
	return docs, nil
}

// handleUnreadable applies the error policy. A nil return continues the walk.
func (l *Loader) handleUnreadable(path string, err error) error {
	if l.policy == ErrorPolicySkip {
		l.logger.Warn("skipping unreadable document", "path", path, "err", err)
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnreadableDocument, path, err)
}

func (l *Loader) loadDocument(path, filename string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("invalid UTF-8 encoding")
	}
	content := normalizeNewlines(string(data))

	title, ok, err := ParseTitle(content)
	if err != nil {
		l.logger.Warn("malformed front matter, using default title", "path", path, "err", err)
	}
	if !ok {
		title = core.UntitledTitle
	}

	return Document{
		Record: core.DocumentRecord{
			Path:     path,
			Filename: filename,
			Title:    title,
		},
		Text: Normalize(content),
	}, nil
}
