package rewrite

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// FindStaged returns every staged file below root in path order.
func FindStaged(fs afero.Fs, root, suffix string) ([]string, error) {
	var staged []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, suffix) {
			staged = append(staged, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find staged files under %s: %w", root, err)
	}
	return staged, nil
}

// Commit replaces each original with its staged file. All files are attempted;
// the returned error joins every failure.
func Commit(fs afero.Fs, suffix string, staged []string) error {
	var errs []error
	for _, path := range staged {
		if !strings.HasSuffix(path, suffix) {
			errs = append(errs, fmt.Errorf("%s is not a staged file", path))
			continue
		}
		original := strings.TrimSuffix(path, suffix)
		if err := fs.Remove(original); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", original, err))
			continue
		}
		if err := fs.Rename(path, original); err != nil {
			errs = append(errs, fmt.Errorf("failed to promote %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Rollback deletes staged files, leaving the originals untouched.
func Rollback(fs afero.Fs, staged []string) error {
	var errs []error
	for _, path := range staged {
		if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
