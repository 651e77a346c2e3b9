package resume

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameReplacesSpacesAndKeepsExtension(t *testing.T) {
	got := Filename("Jane Van Doe", "1x2y3z", "my resume.pdf")
	assert.Equal(t, "Jane_Van_Doe_1x2y3z.pdf", got)
}

func TestFilenameLowercasesExtension(t *testing.T) {
	got := Filename("Jane", "1x2y3z", "CV.DOCX")
	assert.Equal(t, "Jane_1x2y3z.docx", got)
}

func TestValidateRejectsWrongExtension(t *testing.T) {
	s := &Store{dir: t.TempDir(), maxSize: 1024}
	err := s.Validate("resume.txt", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".docx or .pdf")
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	s := &Store{dir: t.TempDir(), maxSize: 1024}
	err := s.Validate("resume.pdf", 2048)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than 1024")
}

func TestSaveWritesFileBeforeReturning(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 1024)
	require.NoError(t, err)
	require.NoError(t, s.Save("Jane_1.pdf", strings.NewReader("pdf bytes")))
	data, err := ioutil.ReadFile(filepath.Join(dir, "Jane_1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1024)
	require.NoError(t, err)
	assert.NoError(t, s.Remove("nope.pdf"))
}

func TestRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 1024)
	require.NoError(t, err)
	require.NoError(t, s.Save("Jane_1.pdf", strings.NewReader("pdf bytes")))
	require.NoError(t, s.Remove("Jane_1.pdf"))
	_, err = os.Stat(filepath.Join(dir, "Jane_1.pdf"))
	assert.True(t, os.IsNotExist(err))
}
