package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const (
	urlsFileName      = "urls.json"
	analyticsFileName = "analytics.json"
)

type (
	urlDocument       map[shortener.Code]shortener.URLRecord
	analyticsDocument map[shortener.Code]*shortener.Analytics
)

// FileStore persists records and analytics as two JSON documents in a directory.
// Every mutation rewrites the whole document under a single lock. A document that
// cannot be read or parsed is treated as empty; the next write re-creates it.
type FileStore struct {
	mu            sync.Mutex
	urlsPath      string
	analyticsPath string
	logger        *zap.Logger
}

// NewFileStore creates the data directory and any missing documents.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		urlsPath:      filepath.Join(dir, urlsFileName),
		analyticsPath: filepath.Join(dir, analyticsFileName),
		logger:        logger.With(logging.Package(logging.PackageRepository)),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	for _, path := range []string{s.urlsPath, s.analyticsPath} {
		if _, err := os.Stat(path); err == nil {
			continue
		}

		if err := writeJSON(path, struct{}{}); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", filepath.Base(path), err)
		}

		s.logger.Info("storage file initialized", zap.String("path", path))
	}

	return s, nil
}

func (s *FileStore) Exists(_ context.Context, code shortener.Code) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.loadURLs()[code]

	return ok, nil
}

func (s *FileStore) Get(_ context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.loadURLs()[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	s.logger.Debug("url retrieved", zap.String("code", string(code)))

	return &record, nil
}

func (s *FileStore) Put(_ context.Context, record *shortener.URLRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := s.loadURLs()
	urls[record.Code] = *record

	if err := writeJSON(s.urlsPath, urls); err != nil {
		s.logger.Error("failed to save url", zap.String("code", string(record.Code)), zap.Error(err))

		return fmt.Errorf("write %s: %w", urlsFileName, err)
	}

	s.logger.Info("url saved", zap.String("code", string(record.Code)))

	return nil
}

func (s *FileStore) Analytics(_ context.Context, code shortener.Code) (*shortener.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.loadAnalytics()[code]
	if !ok || entry == nil {
		return shortener.EmptyAnalytics(), nil
	}

	if entry.Clicks == nil {
		entry.Clicks = []shortener.ClickRecord{}
	}

	return entry, nil
}

func (s *FileStore) AppendClick(_ context.Context, code shortener.Code, click shortener.ClickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	analytics := s.loadAnalytics()

	entry, ok := analytics[code]
	if !ok || entry == nil {
		entry = shortener.EmptyAnalytics()
		analytics[code] = entry
	}

	entry.TotalClicks++
	entry.Clicks = append(entry.Clicks, click)

	if err := writeJSON(s.analyticsPath, analytics); err != nil {
		s.logger.Error("failed to save analytics", zap.String("code", string(code)), zap.Error(err))

		return fmt.Errorf("write %s: %w", analyticsFileName, err)
	}

	s.logger.Info("analytics saved", zap.String("code", string(code)))

	return nil
}

// Ping checks that the data directory is still reachable.
func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(s.urlsPath))

	return err
}

func (s *FileStore) loadURLs() urlDocument {
	doc := urlDocument{}
	if err := readJSON(s.urlsPath, &doc); err != nil {
		s.logger.Warn("failed to load urls, using empty document", zap.Error(err))

		return urlDocument{}
	}

	return doc
}

func (s *FileStore) loadAnalytics() analyticsDocument {
	doc := analyticsDocument{}
	if err := readJSON(s.analyticsPath, &doc); err != nil {
		s.logger.Warn("failed to load analytics, using empty document", zap.Error(err))

		return analyticsDocument{}
	}

	return doc
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// writeJSON replaces path atomically so a crash never leaves a half-written document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Compile-time check.
var _ shortener.Repository = (*FileStore)(nil)
