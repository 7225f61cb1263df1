package extractor_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// writeEPUB builds a minimal EPUB whose package document is opf.
func writeEPUB(t *testing.T, dir, name, opf string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	files := []struct{ name, body string }{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", opf},
		{"OEBPS/chapter1.xhtml", "<html><body><p>text</p></body></html>"},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

type exthRecord struct {
	kind  uint32
	value string
}

// writeMOBI builds a minimal two-record PalmDB file with a UTF-8 MOBI header,
// an EXTH block holding records, and fullName as the header title.
func writeMOBI(t *testing.T, dir, name, fullName string, locale uint32, records []exthRecord) string {
	t.Helper()

	const headerLen = 232

	var exth bytes.Buffer
	for _, r := range records {
		_ = binary.Write(&exth, binary.BigEndian, r.kind)
		_ = binary.Write(&exth, binary.BigEndian, uint32(8+len(r.value)))
		exth.WriteString(r.value)
	}
	exthBlock := new(bytes.Buffer)
	exthBlock.WriteString("EXTH")
	_ = binary.Write(exthBlock, binary.BigEndian, uint32(12+exth.Len()))
	_ = binary.Write(exthBlock, binary.BigEndian, uint32(len(records)))
	exthBlock.Write(exth.Bytes())

	mobi := make([]byte, headerLen)
	copy(mobi, "MOBI")
	binary.BigEndian.PutUint32(mobi[4:], headerLen)
	binary.BigEndian.PutUint32(mobi[8:], 2)
	binary.BigEndian.PutUint32(mobi[12:], 65001)
	fullNameOffset := 16 + headerLen + exthBlock.Len()
	binary.BigEndian.PutUint32(mobi[0x54:], uint32(fullNameOffset))
	binary.BigEndian.PutUint32(mobi[0x58:], uint32(len(fullName)))
	binary.BigEndian.PutUint32(mobi[0x5C:], locale)
	if len(records) > 0 {
		binary.BigEndian.PutUint32(mobi[0x80:], 0x40)
	}

	record0 := new(bytes.Buffer)
	record0.Write(make([]byte, 16))
	record0.Write(mobi)
	record0.Write(exthBlock.Bytes())
	record0.WriteString(fullName)
	record0.Write([]byte{0, 0})

	palm := make([]byte, 78)
	copy(palm, name)
	copy(palm[60:], "BOOKMOBI")
	binary.BigEndian.PutUint16(palm[76:], 2)

	rec0Offset := uint32(78 + 16 + 2)
	rec1Offset := rec0Offset + uint32(record0.Len())
	entries := make([]byte, 16)
	binary.BigEndian.PutUint32(entries[0:], rec0Offset)
	binary.BigEndian.PutUint32(entries[8:], rec1Offset)

	var file bytes.Buffer
	file.Write(palm)
	file.Write(entries)
	file.Write([]byte{0, 0})
	file.Write(record0.Bytes())
	file.WriteString("text record")

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, file.Bytes(), 0o644))
	return path
}
