package fetcher

import (
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeXMLElements collects every element with the given local name from an
// XML document. Feeds occasionally declare legacy charsets in the prolog, so
// the decoder negotiates the encoding through htmlindex instead of rejecting
// anything that is not UTF-8.
func DecodeXMLElements[T any](r io.Reader, elementName string) ([]T, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var out []T
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "xml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != elementName {
			continue
		}

		var item T
		if err := decoder.DecodeElement(&item, &se); err != nil {
			return nil, eris.Wrapf(err, "xml: decode %s element", elementName)
		}
		out = append(out, item)
	}
}
