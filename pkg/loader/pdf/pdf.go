package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/singleflight"
)

// PDFGraphLoader extracts the text layer of PDFs fetched by another loader.
type PDFGraphLoader struct {
	loader loader.GraphFileLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFGraphLoader wraps base, which supplies the raw PDF bytes.
func NewPDFGraphLoader(base loader.GraphFileLoader) *PDFGraphLoader {
	return &PDFGraphLoader{
		loader: base,
		cache:  make(map[string][]byte),
	}
}

// GetFileText returns the plain text of every page that yields any, joined
// with newlines.
func (l *PDFGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := ExtractText(content)
		if err != nil {
			return nil, fmt.Errorf("pdf %s: %w", file.FilePath, err)
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ExtractText reads the text layer page by page. Pages that are empty or
// cannot be decoded are skipped.
func ExtractText(content []byte) ([]byte, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		text, ok := pageText(reader, i)
		if !ok {
			continue
		}
		pages = append(pages, text)
	}

	return []byte(strings.Join(pages, "\n")), nil
}

func pageText(reader *pdf.Reader, num int) (text string, ok bool) {
	// Malformed content streams make the decoder panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("[PDF] Skipping undecodable page", "page", num, "panic", r)
			text, ok = "", false
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", false
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.Debug("[PDF] Skipping page", "page", num, "err", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	return text, text != ""
}
