package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/keycodec"
	"github.com/dshills/scorecache/pkg/types"
)

// Format names reported on Documents
const (
	FormatMusicXML = "musicxml"
	FormatMXL      = "mxl"
	FormatHumdrum  = "humdrum"
	FormatABC      = "abc"
)

var (
	// ErrUnsupportedFormat is returned for files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported score format")
	// ErrNoSuchNumber is returned when a numbered document is not in the source
	ErrNoSuchNumber = errors.New("no document with that number")
	// ErrSourceTooLarge is returned for sources over the read limit
	ErrSourceTooLarge = errors.New("score source too large")
)

// maxSourceSize bounds how much of one source is read
const maxSourceSize = 64 << 20

// Parser reads score metadata from local files and network URIs
type Parser struct {
	Root   string       // Corpus root for relative paths
	Client *http.Client // Used for network sources
	Retry  RetryConfig  // Backoff for transient network failures
}

// New creates a Parser rooted at root
func New(root string) *Parser {
	return &Parser{
		Root:   root,
		Client: &http.Client{Timeout: 30 * time.Second},
		Retry:  DefaultRetryConfig(),
	}
}

// Extensions returns the file extensions the parser understands
func Extensions() []string {
	return []string{".abc", ".krn", ".musicxml", ".mx", ".mxl", ".xml"}
}

// FormatOf returns the format for a source path, or "" if unsupported
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".musicxml", ".mx":
		return FormatMusicXML
	case ".mxl":
		return FormatMXL
	case ".krn":
		return FormatHumdrum
	case ".abc":
		return FormatABC
	default:
		return ""
	}
}

// document is one parsed unit of a source
type document struct {
	number   *int
	metadata *types.Metadata
	content  []byte
}

// Derive implements indexer.Deriver
func (p *Parser) Derive(ctx context.Context, path string, opts indexer.DeriveOptions) ([]indexer.Derived, error) {
	docs, err := p.parseSource(ctx, path)
	if err != nil {
		return nil, err
	}

	derived := make([]indexer.Derived, 0, len(docs))
	for _, d := range docs {
		out := indexer.Derived{Number: d.number}
		if !d.metadata.IsEmpty() {
			out.Payload = d.metadata
		}
		derived = append(derived, out)
	}
	return derived, nil
}

// Parse implements types.Parser
func (p *Parser) Parse(ctx context.Context, sourcePath string, number *int) (*types.Document, error) {
	docs, err := p.parseSource(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		if number != nil && (d.number == nil || *d.number != *number) {
			continue
		}
		return &types.Document{
			SourcePath: sourcePath,
			Number:     d.number,
			Format:     FormatOf(sourcePath),
			Metadata:   d.metadata,
			Content:    d.content,
		}, nil
	}
	if number == nil {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoSuchNumber, sourcePath)
	}
	return nil, fmt.Errorf("%w: %s #%d", ErrNoSuchNumber, sourcePath, *number)
}

// parseSource reads path and splits it into documents
func (p *Parser) parseSource(ctx context.Context, path string) ([]document, error) {
	format := FormatOf(path)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := p.readSource(ctx, path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatMXL:
		xmlData, err := unpackMXL(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", path, err)
		}
		md, err := parseMusicXML(xmlData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return []document{{metadata: md, content: xmlData}}, nil
	case FormatMusicXML:
		md, err := parseMusicXML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return []document{{metadata: md, content: data}}, nil
	case FormatHumdrum:
		md, err := parseHumdrum(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return []document{{metadata: md, content: data}}, nil
	default:
		return parseABC(data), nil
	}
}

// readSource loads a local file or fetches a network URI
func (p *Parser) readSource(ctx context.Context, path string) ([]byte, error) {
	if keycodec.IsNetworkPath(path) {
		return p.fetch(ctx, path)
	}

	if !filepath.IsAbs(path) && p.Root != "" {
		path = filepath.Join(p.Root, filepath.FromSlash(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open score: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := readLimited(f, maxSourceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read score %s: %w", path, err)
	}
	return data, nil
}

// readLimited reads all of r, failing instead of truncating when r holds
// more than limit bytes
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, limit)
	}
	return data, nil
}

func (p *Parser) fetch(ctx context.Context, url string) ([]byte, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	return retryWithBackoff(ctx, p.Retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
			// Only rate limiting and server errors are worth another attempt
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, err
			}
			return nil, permanent(err)
		}

		data, err := readLimited(resp.Body, maxSourceSize)
		if errors.Is(err, ErrSourceTooLarge) {
			return nil, permanent(fmt.Errorf("failed to read %s: %w", url, err))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return data, nil
	})
}
