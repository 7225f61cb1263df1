package extractor

import (
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// PalmDB and MOBI header layout.
const (
	palmHeaderSize     = 78
	palmTypeOffset     = 60
	palmRecordCountOff = 76
	palmRecordEntry    = 8
	palmDocHeaderSize  = 16

	mobiHeaderLenOff  = 4
	mobiEncodingOff   = 12
	mobiFullNameOff   = 0x54
	mobiFullNameLen   = 0x58
	mobiLocaleOff     = 0x5C
	mobiEXTHFlagsOff  = 0x80
	mobiEXTHFlagBit   = 0x40
	encodingCP1252    = 1252
	maxRecord0Size    = 1 << 20
	exthRecordMinSize = 8
)

// EXTH record types.
const (
	exthAuthor    = 100
	exthPublisher = 101
	exthSubject   = 105
	exthPubDate   = 106
	exthTitle     = 503
	exthLanguage  = 524
)

// mobiLocales maps the low byte of the MOBI locale field to a language code.
var mobiLocales = map[uint32]string{
	0x04: "zh",
	0x07: "de",
	0x09: "en",
	0x0A: "es",
	0x0C: "fr",
	0x10: "it",
	0x11: "ja",
	0x16: "pt",
	0x19: "ru",
}

func parseMOBI(filename string) (Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}
	defer f.Close()

	header := make([]byte, palmHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return Result{}, errors.Wrap(err, "read palmdb header")
	}
	if kind := string(header[palmTypeOffset : palmTypeOffset+8]); kind != "BOOKMOBI" {
		return Result{}, errors.Errorf("unexpected palmdb type %q", kind)
	}
	count := binary.BigEndian.Uint16(header[palmRecordCountOff:])
	if count == 0 {
		return Result{}, errors.New("palmdb has no records")
	}

	entries := make([]byte, palmRecordEntry*2)
	if count == 1 {
		entries = entries[:palmRecordEntry]
	}
	if _, err := io.ReadFull(f, entries); err != nil {
		return Result{}, errors.Wrap(err, "read record list")
	}
	start := int64(binary.BigEndian.Uint32(entries[0:4]))
	end := int64(-1)
	if count > 1 {
		end = int64(binary.BigEndian.Uint32(entries[8:12]))
	}
	info, err := f.Stat()
	if err != nil {
		return Result{}, errors.WithStack(err)
	}
	size := info.Size()
	if start >= size {
		return Result{}, errors.Errorf("record 0 offset %d beyond file size %d", start, size)
	}
	if end <= start || end > size {
		end = size
	}
	if end-start > maxRecord0Size {
		end = start + maxRecord0Size
	}

	record0 := make([]byte, end-start)
	if _, err := f.ReadAt(record0, start); err != nil && !errors.Is(err, io.EOF) {
		return Result{}, errors.Wrap(err, "read record 0")
	}
	return parseRecord0(record0)
}

func parseRecord0(rec []byte) (Result, error) {
	if len(rec) < palmDocHeaderSize+mobiEXTHFlagsOff+4 {
		return Result{}, errors.New("record 0 too short")
	}
	mobi := rec[palmDocHeaderSize:]
	if string(mobi[:4]) != "MOBI" {
		return Result{}, errors.Errorf("missing MOBI header, found %q", mobi[:4])
	}
	headerLen := int(binary.BigEndian.Uint32(mobi[mobiHeaderLenOff:]))
	encoding := binary.BigEndian.Uint32(mobi[mobiEncodingOff:])
	decode := func(b []byte) string { return decodeText(b, encoding) }

	var result Result
	nameOff := int(binary.BigEndian.Uint32(mobi[mobiFullNameOff:]))
	nameLen := int(binary.BigEndian.Uint32(mobi[mobiFullNameLen:]))
	if nameOff > 0 && nameLen > 0 && nameOff+nameLen <= len(rec) {
		result.Title = decode(rec[nameOff : nameOff+nameLen])
	}
	locale := binary.BigEndian.Uint32(mobi[mobiLocaleOff:])
	result.Language = mobiLocales[locale&0xFF]

	flags := binary.BigEndian.Uint32(mobi[mobiEXTHFlagsOff:])
	if flags&mobiEXTHFlagBit == 0 {
		return result, nil
	}
	exthStart := palmDocHeaderSize + headerLen
	if exthStart+12 > len(rec) || string(rec[exthStart:exthStart+4]) != "EXTH" {
		return result, nil
	}

	exthCount := int(binary.BigEndian.Uint32(rec[exthStart+8:]))
	pos := exthStart + 12
	for i := 0; i < exthCount && pos+exthRecordMinSize <= len(rec); i++ {
		kind := binary.BigEndian.Uint32(rec[pos:])
		size := int(binary.BigEndian.Uint32(rec[pos+4:]))
		if size < exthRecordMinSize || pos+size > len(rec) {
			break
		}
		value := decode(rec[pos+exthRecordMinSize : pos+size])
		switch kind {
		case exthAuthor:
			result.Authors = append(result.Authors, splitAuthors(value)...)
		case exthPublisher:
			result.Publisher = value
		case exthSubject:
			result.Tags = append(result.Tags, value)
		case exthPubDate:
			result.PubDate = value
		case exthTitle:
			result.Title = value
		case exthLanguage:
			result.Language = value
		}
		pos += size
	}
	return result, nil
}

func decodeText(b []byte, encoding uint32) string {
	if encoding == encodingCP1252 {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err == nil {
			b = decoded
		}
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// splitAuthors handles the "A & B" and "A; B" forms some tools write into a
// single EXTH author record.
func splitAuthors(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == '&' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
