package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CashbookRecon/internal/config"
)

// LoggerService routes the standard logger into a size-rotated file and
// zips files older than the retention window.
type LoggerService struct {
	file          *os.File
	mu            sync.Mutex
	stopCh        chan struct{}
	wg            sync.WaitGroup
	currentLog    string
	maxFileBytes  int64
	retentionDays int
	folderPath    string
	mirrorStdout  bool
	now           func() time.Time
}

func NewLoggerService(cfg map[string]interface{}) *LoggerService {
	folder := config.String(cfg, "folder_path", config.DefaultLogFolder)
	return &LoggerService{
		stopCh:        make(chan struct{}),
		maxFileBytes:  int64(config.Int(cfg, "max_file_mb", config.DefaultLogMaxMB)) * 1024 * 1024,
		retentionDays: config.Int(cfg, "retention_days", config.DefaultLogRetentionDays),
		folderPath:    folder,
		mirrorStdout:  config.Bool(cfg, "stdout", false),
		now:           time.Now,
	}
}

func (l *LoggerService) Name() string {
	return "logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	if err := l.openLocked(); err != nil {
		return err
	}
	log.Println("[LoggerService] Started, writing to", l.currentLog)

	l.wg.Add(1)
	go l.backgroundWorker()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		log.Println("[LoggerService] Stopping")
		log.SetOutput(os.Stderr)
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// CurrentFile is the path of the log file being written.
func (l *LoggerService) CurrentFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentLog
}

func (l *LoggerService) openLocked() error {
	name := l.nextLogFileName()
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentLog = name
	var w io.Writer = file
	if l.mirrorStdout {
		w = io.MultiWriter(file, os.Stdout)
	}
	log.SetOutput(w)
	return nil
}

func (l *LoggerService) nextLogFileName() string {
	timestamp := l.now().Format("20060102_150405.000")
	return filepath.Join(l.folderPath, fmt.Sprintf("recon_%s.log", timestamp))
}

func (l *LoggerService) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.maxFileBytes <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxFileBytes {
		return nil
	}
	l.file.Close()
	if err := l.openLocked(); err != nil {
		log.SetOutput(os.Stderr)
		return err
	}
	log.Println("[LoggerService] Rotated log file to", l.currentLog)
	return nil
}

func (l *LoggerService) backgroundWorker() {
	defer l.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	retentionTicker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	defer retentionTicker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.rotateIfNeeded(); err != nil {
				log.Println("[ERROR] log rotation:", err)
			}
		case <-retentionTicker.C:
			l.zipAndCleanOldLogs()
		}
	}
}

// zipAndCleanOldLogs moves log files older than the retention window into a
// dated zip archive.
func (l *LoggerService) zipAndCleanOldLogs() (int, error) {
	if l.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := l.now().AddDate(0, 0, -l.retentionDays)
	entries, err := os.ReadDir(l.folderPath)
	if err != nil {
		return 0, err
	}
	var old []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		full := filepath.Join(l.folderPath, e.Name())
		if full == l.CurrentFile() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		old = append(old, full)
	}
	if len(old) == 0 {
		return 0, nil
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", l.now().Format("20060102_150405")))
	zipFile, err := os.Create(zipName)
	if err != nil {
		return 0, err
	}
	defer zipFile.Close()
	zw := zip.NewWriter(zipFile)

	archived := 0
	for _, path := range old {
		if err := addToZip(zw, path); err != nil {
			continue
		}
		os.Remove(path)
		archived++
	}
	return archived, zw.Close()
}

func addToZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func (l *LoggerService) LogAudit(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.Printf("[AUDIT] %s", msg)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// Audit writes an audit line through GlobalLogger, or the standard logger
// when the service is not running.
func Audit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if GlobalLogger != nil {
		GlobalLogger.LogAudit(msg)
		return
	}
	log.Printf("[AUDIT] %s", msg)
}

func Info(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

func Error(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
