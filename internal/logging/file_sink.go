package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrSinkFull is returned when the file sink queue cannot take another record
var ErrSinkFull = errors.New("dispatch log queue full")

// FileSink implements asynchronous, buffered JSONL logging of dispatch
// records with size-based rotation and periodic flush.
type FileSink struct {
	fileTemplate  string        // e.g. "/var/log/nf-gateway/dispatch-%s.jsonl"
	maxSize       int64         // maximum size in bytes before rotation
	maxFiles      int           // maximum number of rotated files to keep
	flushInterval time.Duration // flush the buffer every flushInterval if not empty

	mu          sync.Mutex
	currentFile string // current active file name (populated from fileTemplate)
	file        *os.File
	writer      *bufio.Writer
	currentSize int64
	rotations   int

	create func(name string) (*os.File, error)

	recCh  chan *Record
	doneCh chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewFileSink creates a FileSink. bufferSize bounds the number of queued
// records; flushInterval defines how often the buffer is flushed.
func NewFileSink(fileTemplate string, maxSize int64, maxFiles, bufferSize int, flushInterval time.Duration) (*FileSink, error) {
	s := &FileSink{
		fileTemplate:  fileTemplate,
		maxSize:       maxSize,
		maxFiles:      maxFiles,
		flushInterval: flushInterval,
		create:        createLogFile,
		recCh:         make(chan *Record, bufferSize),
		doneCh:        make(chan struct{}),
	}

	if err := s.openFile(); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// newFileName applies the current timestamp and a rotation counter to the
// template, so two rotations within one second still get distinct names.
func (s *FileSink) newFileName() string {
	stamp := fmt.Sprintf("%s-%04d", time.Now().Format("20060102150405"), s.rotations)
	s.rotations++
	return fmt.Sprintf(s.fileTemplate, stamp)
}

func createLogFile(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// openFile opens the next log file, creating its directory if needed. The
// previous file stays active unless the new one opens.
func (s *FileSink) openFile() error {
	name := s.newFileName()
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := s.create(name)
	if err != nil {
		return err
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			Warningf("Failed to close dispatch log %s: %v", s.currentFile, err)
		}
	}
	s.currentFile = name
	s.currentSize = fi.Size()
	s.file = file
	s.writer = bufio.NewWriter(file)
	return nil
}

// rotateIfNeeded rotates when adding n bytes would exceed the max size.
// Caller holds s.mu.
func (s *FileSink) rotateIfNeeded(n int) error {
	if s.currentSize == 0 || s.currentSize+int64(n) < s.maxSize {
		return nil
	}

	if err := s.writer.Flush(); err != nil {
		return err
	}
	if err := s.openFile(); err != nil {
		return err
	}
	return s.cleanupOldFiles()
}

// cleanupOldFiles removes the oldest rotated files if more than maxFiles exist.
func (s *FileSink) cleanupOldFiles() error {
	pattern := fmt.Sprintf(s.fileTemplate, "*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	// Names embed a sortable timestamp and counter
	sort.Strings(matches)

	excess := len(matches) - s.maxFiles
	for i := 0; i < excess; i++ {
		if matches[i] == s.currentFile {
			continue
		}
		_ = os.Remove(matches[i])
	}
	return nil
}

// run writes queued records and flushes periodically
func (s *FileSink) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-s.recCh:
			s.write(rec)
		case <-ticker.C:
			s.mu.Lock()
			_ = s.writer.Flush()
			s.mu.Unlock()
		case <-s.doneCh:
			// Drain remaining records.
			for {
				select {
				case rec := <-s.recCh:
					s.write(rec)
				default:
					s.mu.Lock()
					_ = s.writer.Flush()
					_ = s.file.Close()
					s.mu.Unlock()
					return
				}
			}
		}
	}
}

func (s *FileSink) write(rec *Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		Warningf("Dropping dispatch record: %v", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeeded(len(data)); err != nil {
		Errorf("Failed to rotate dispatch log: %v", err)
	}
	n, _ := s.writer.Write(data)
	s.currentSize += int64(n)
}

// Enqueue queues rec for writing. A full queue drops the record.
func (s *FileSink) Enqueue(rec *Record) error {
	select {
	case s.recCh <- rec:
		return nil
	default:
		return ErrSinkFull
	}
}

// CurrentFile returns the path of the active log file
func (s *FileSink) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFile
}

// Close flushes queued records and closes the file. Safe to call twice.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.doneCh)
	s.wg.Wait()
	return nil
}
