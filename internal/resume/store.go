package resume

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var allowedExtensions = map[string]bool{
	".docx": true,
	".pdf":  true,
}

// Store writes applicant resumes under a single directory. Writes complete
// before the caller proceeds so an application is only recorded once the
// file is durably on disk.
type Store struct {
	dir     string
	maxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Filename derives the stored name from the applicant name and job id so a
// re-upload for the same job overwrites rather than accumulates.
func Filename(applicantName, jobID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := strings.ReplaceAll(strings.TrimSpace(applicantName), " ", "_")
	return name + "_" + jobID + ext
}

func (s *Store) Validate(originalName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return fmt.Errorf("please upload your resume as a .docx or .pdf file")
	}
	if size > s.maxSize {
		return fmt.Errorf("please upload a file less than %d bytes", s.maxSize)
	}
	return nil
}

func (s *Store) Save(filename string, src io.Reader) error {
	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, io.LimitReader(src, s.maxSize)); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// Remove deletes a stored resume. A missing file is not an error, cleanup
// runs best effort after the owning rows are already gone.
func (s *Store) Remove(filename string) error {
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
