package utils_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medibook-server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeader(t *testing.T, filename, mimeType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["file"][0]
}

func TestSaveUploadStoresRandomizedFile(t *testing.T) {
	dir := t.TempDir()
	fh := makeFileHeader(t, "scan.pdf", "application/pdf", []byte("%PDF-1.4 test"))

	fileName, filePath, err := utils.SaveUpload(fh, dir)
	require.NoError(t, err)

	assert.Equal(t, ".pdf", filepath.Ext(fileName))
	assert.NotEqual(t, "scan.pdf", fileName)
	assert.Equal(t, filepath.Join(dir, fileName), filePath)

	stored, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), stored)
}

func TestSaveUploadRejectsUnsupportedType(t *testing.T) {
	fh := makeFileHeader(t, "malware.exe", "application/octet-stream", []byte("MZ"))

	_, _, err := utils.SaveUpload(fh, t.TempDir())
	assert.ErrorIs(t, err, utils.ErrUnsupportedFileType)
}

func TestSaveUploadRejectsOversizedFile(t *testing.T) {
	big := strings.Repeat("a", utils.MaxUploadSize+1)
	fh := makeFileHeader(t, "big.png", "image/png", []byte(big))

	_, _, err := utils.SaveUpload(fh, t.TempDir())
	assert.ErrorIs(t, err, utils.ErrFileTooLarge)
}

func TestRemoveUpload(t *testing.T) {
	dir := t.TempDir()
	fh := makeFileHeader(t, "photo.jpeg", "image/jpeg", []byte("jpeg-bytes"))

	_, filePath, err := utils.SaveUpload(fh, dir)
	require.NoError(t, err)

	utils.RemoveUpload(filePath)
	_, err = os.Stat(filePath)
	assert.True(t, os.IsNotExist(err))
}
