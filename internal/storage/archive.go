package storage

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// Archive persists completed RunReports under the data directory so past
// runs can be listed and compared. Writes go through a temp file and rename,
// so a crash never leaves a truncated report behind.
type Archive struct {
	baseDir     string
	logger      *logrus.Logger
	mu          sync.RWMutex
	compression bool
	retention   time.Duration
}

// IndexEntry is one row of the YAML archive index.
type IndexEntry struct {
	RunID         string    `yaml:"run_id"`
	Timestamp     time.Time `yaml:"timestamp"`
	Environment   string    `yaml:"environment"`
	SecurityScore float64   `yaml:"security_score"`
	RiskLevel     string    `yaml:"risk_level"`
	TotalFindings int       `yaml:"total_findings"`
	File          string    `yaml:"file"`
}

func NewArchive(baseDir string, compression bool, retention time.Duration, logger *logrus.Logger) (*Archive, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(filepath.Join(baseDir, "runs"), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	a := &Archive{
		baseDir:     baseDir,
		logger:      logger,
		compression: compression,
		retention:   retention,
	}

	if retention > 0 {
		a.sweepExpired()
	}
	return a, nil
}

func (a *Archive) Save(report *models.RunReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	runsDir := filepath.Join(a.baseDir, "runs")
	finalPath := filepath.Join(runsDir, report.RunID+".json")

	tmp, err := os.CreateTemp(runsDir, "."+report.RunID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("atomic rename: %w", err)
	}

	stored := finalPath
	if a.compression {
		if compressed, err := a.compressFile(finalPath); err != nil {
			a.logger.Warnf("Failed to compress archived run: %v", err)
		} else {
			_ = os.Remove(finalPath)
			stored = compressed
		}
	}

	if err := a.appendIndexLocked(report, filepath.Base(stored)); err != nil {
		a.logger.Warnf("Failed to update archive index: %v", err)
	}

	a.logger.Infof("Run archived to %s", stored)
	return nil
}

func (a *Archive) Load(runID string) (*models.RunReport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	runsDir := filepath.Join(a.baseDir, "runs")
	path := filepath.Join(runsDir, runID+".json")
	if _, err := os.Stat(path); err != nil {
		path += ".gz"
	}

	var reader io.Reader
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archived run: %w", err)
	}
	defer f.Close()
	reader = f

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	var report models.RunReport
	if err := json.NewDecoder(reader).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode archived run: %w", err)
	}
	return &report, nil
}

// List returns the archive index, newest first.
func (a *Archive) List() ([]IndexEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries, err := a.readIndex()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	return entries, nil
}

func (a *Archive) indexPath() string {
	return filepath.Join(a.baseDir, "runs", "index.yaml")
}

func (a *Archive) readIndex() ([]IndexEntry, error) {
	data, err := os.ReadFile(a.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive index: %w", err)
	}
	var entries []IndexEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse archive index: %w", err)
	}
	return entries, nil
}

func (a *Archive) appendIndexLocked(report *models.RunReport, file string) error {
	entries, err := a.readIndex()
	if err != nil {
		return err
	}
	entries = append(entries, IndexEntry{
		RunID:         report.RunID,
		Timestamp:     report.Timestamp,
		Environment:   report.Metadata.Environment,
		SecurityScore: report.Summary.SecurityScore,
		RiskLevel:     report.Summary.RiskLevel,
		TotalFindings: report.Summary.TotalFindings,
		File:          file,
	})
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal archive index: %w", err)
	}
	return os.WriteFile(a.indexPath(), data, 0o644)
}

func (a *Archive) compressFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dstPath := path + ".gz"
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = dst.Close() }()

	gw := gzip.NewWriter(dst)
	gw.Name = filepath.Base(path)
	gw.ModTime = time.Now()

	_, copyErr := io.Copy(gw, src)
	closeErr := gw.Close()
	if copyErr != nil {
		return "", copyErr
	}
	if closeErr != nil {
		return "", closeErr
	}
	return dstPath, nil
}

// sweepExpired removes archived runs older than the retention window and
// rewrites the index to drop the stale rows.
func (a *Archive) sweepExpired() {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.readIndex()
	if err != nil {
		a.logger.Warnf("Failed to read archive index for cleanup: %v", err)
		return
	}

	cutoff := time.Now().Add(-a.retention)
	kept := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
			continue
		}
		path := filepath.Join(a.baseDir, "runs", e.File)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.Warnf("Failed to remove expired run %s: %v", e.RunID, err)
			kept = append(kept, e)
			continue
		}
		a.logger.Infof("Removed expired archived run: %s", e.RunID)
	}

	if len(kept) != len(entries) {
		data, err := yaml.Marshal(kept)
		if err != nil {
			a.logger.Warnf("Failed to rewrite archive index: %v", err)
			return
		}
		if err := os.WriteFile(a.indexPath(), data, 0o644); err != nil {
			a.logger.Warnf("Failed to write archive index: %v", err)
		}
	}
}
