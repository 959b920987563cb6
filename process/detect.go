package process

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// detectUTF looks for byte order mark. UTF-32 LE must be checked before
// UTF-16 LE, they share the first two bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		return encUTF8
	case bytes.HasPrefix(buf, bomUTF32BE):
		return encUTF32BigEndian
	case bytes.HasPrefix(buf, bomUTF32LE):
		return encUTF32LittleEndian
	case bytes.HasPrefix(buf, bomUTF16BE):
		return encUTF16BigEndian
	case bytes.HasPrefix(buf, bomUTF16LE):
		return encUTF16LittleEndian
	}
	return encUnknown
}

func sniff(r io.Reader) (srcEncoding, error) {
	buf := make([]byte, 4)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return encUnknown, err
	}
	return detectUTF(buf[:n]), nil
}

// isArchiveFile checks both extension and content, we only support zip.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs at most 262 bytes of header
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// isDocumentFile reports whether file looks like G-code and returns its
// encoding if BOM is present.
func isDocumentFile(path string, exts []string) (bool, srcEncoding, error) {
	if !hasExtension(path, exts) {
		return false, encUnknown, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	enc, err := sniff(f)
	if err != nil {
		return false, encUnknown, err
	}
	return true, enc, nil
}

func isDocumentInArchive(f *zip.File, exts []string) (bool, srcEncoding, error) {
	if !hasExtension(f.FileHeader.Name, exts) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	enc, err := sniff(r)
	if err != nil {
		return false, encUnknown, err
	}
	return true, enc, nil
}

// selectReader returns reader producing UTF-8. BOM always wins, forced code
// page is only used for files without it.
func selectReader(r io.Reader, enc srcEncoding, cp encoding.Encoding) io.Reader {
	switch enc {
	case encUnknown:
		if cp != nil {
			return cp.NewDecoder().Reader(r)
		}
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic("unsupported encoding")
}
