package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"albumocr/pkg/config"
	"albumocr/pkg/imaging"
)

// Extension is appended to every saved label
const Extension = ".jpg"

// FileMode is the permission of every saved photo
const FileMode os.FileMode = 0644

// ErrInvalidLabel is returned for labels that cannot name a file
var ErrInvalidLabel = errors.New("invalid file label")

// Manager writes photos into the output directory and resolves label
// collisions inside a single run
type Manager struct {
	outputDir string
	policy    string
	used      map[string]bool
	saved     int
	mu        sync.Mutex
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir, policy string) (*Manager, error) {
	switch policy {
	case "":
		policy = config.OnDuplicateSuffix
	case config.OnDuplicateSuffix, config.OnDuplicateOverwrite:
	default:
		return nil, fmt.Errorf("unknown duplicate policy %q", policy)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		policy:    policy,
		used:      make(map[string]bool),
	}, nil
}

// Reserve claims a file path for label. Under the suffix policy a label
// already claimed in this run becomes label_2, label_3 and so on, so the
// stem may exceed the label's length by the suffix. Files left by earlier
// runs are not consulted, so reruns overwrite them.
func (m *Manager) Reserve(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stem := label
	if m.policy == config.OnDuplicateSuffix {
		for n := 2; m.used[stem]; n++ {
			stem = label + "_" + strconv.Itoa(n)
		}
	}
	m.used[stem] = true

	return filepath.Join(m.outputDir, stem+Extension), nil
}

// release drops the claim on path after a failed write
func (m *Manager) release(path string) {
	stem := strings.TrimSuffix(filepath.Base(path), Extension)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.used, stem)
}

// Write reserves a path for label and fills it through encode. The data
// lands in a temporary file that is renamed into place only on success;
// on failure the reservation is released for the next item.
func (m *Manager) Write(label string, encode func(w io.Writer) error) (string, error) {
	filename, err := m.Reserve(label)
	if err != nil {
		return "", err
	}

	if err := m.writeFile(filename, encode); err != nil {
		m.release(filename)
		return "", err
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return filename, nil
}

func (m *Manager) writeFile(filename string, encode func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(m.outputDir, ".albumocr-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := tmp.Name()

	// CreateTemp opens with 0600
	err = tmp.Chmod(FileMode)
	if err == nil {
		err = encode(tmp)
	}
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write photo data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// SaveJPEG stores img as <label>.jpg and returns the written path
func (m *Manager) SaveJPEG(label string, img image.Image) (string, error) {
	return m.Write(label, func(w io.Writer) error {
		return imaging.EncodeJPEG(w, img)
	})
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// Policy returns the duplicate label policy in effect
func (m *Manager) Policy() string {
	return m.policy
}

// SavedCount returns the number of files written by this manager
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func checkLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}
