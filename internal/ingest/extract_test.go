package ingest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	return f.text, f.err
}

func TestExtractTextPlainText(t *testing.T) {
	e := NewExtractor(&fakeProvider{text: "should not be used"})

	text, err := e.ExtractText(context.Background(), "resume.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractTextDelegatesToProvider(t *testing.T) {
	e := NewExtractor(&fakeProvider{text: "parsed pdf content"})

	text, err := e.ExtractText(context.Background(), "resume.PDF", []byte{0x25, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "parsed pdf content", text)

	text, err = e.ExtractText(context.Background(), "resume.docx", []byte{0x50, 0x4b})
	require.NoError(t, err)
	assert.Equal(t, "parsed pdf content", text)
}

func TestExtractTextProviderFailure(t *testing.T) {
	e := NewExtractor(&fakeProvider{err: errors.New("tika unreachable")})

	_, err := e.ExtractText(context.Background(), "resume.pdf", nil)
	assert.Error(t, err)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	e := NewExtractor(&fakeProvider{})

	_, err := e.ExtractText(context.Background(), "photo.png", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.txt"))
	assert.True(t, IsSupported("a.PDF"))
	assert.True(t, IsSupported("a.docx"))
	assert.False(t, IsSupported("a.png"))
	assert.False(t, IsSupported("noext"))
}
