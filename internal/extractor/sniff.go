package extractor

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// expectedMimeTypes lists the detected types accepted for each format. Plain
// zip is accepted for EPUB because some tools write the mimetype entry
// compressed or out of order.
var expectedMimeTypes = map[string][]string{
	FormatEPUB: {"application/epub+zip", "application/zip"},
	FormatMOBI: {"application/x-mobipocket-ebook"},
	FormatAZW3: {"application/x-mobipocket-ebook"},
}

func checkContent(path, format string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, expected := range expectedMimeTypes[format] {
		if mtype.Is(expected) {
			return nil
		}
	}
	return errors.Wrapf(ErrUnexpectedContent, "%s detected as %s, declared %s", path, mtype.String(), format)
}
