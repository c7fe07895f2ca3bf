package stream

import (
	"errors"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apierrors "github.com/diogo/chatstream/internal/errors"
)

const defaultCharset = "utf-8"

// Decoder turns a sequence of byte chunks into text.
//
// A single Decoder must be used for the whole response: an incomplete
// multi-byte sequence at the end of one chunk is held back and completed by
// the next one. Invalid input decodes to U+FFFD.
type Decoder struct {
	charset string
	t       transform.Transformer
	pending []byte
	buf     []byte
}

// NewDecoder returns a UTF-8 decoder
func NewDecoder() *Decoder {
	return NewDecoderForEncoding(defaultCharset, unicode.UTF8)
}

// NewDecoderForEncoding returns a decoder for enc, labelled name in errors
func NewDecoderForEncoding(name string, enc encoding.Encoding) *Decoder {
	return &Decoder{
		charset: name,
		t:       enc.NewDecoder(),
		buf:     make([]byte, 4096),
	}
}

// NewDecoderForContentType picks the decoder from the charset parameter of a
// Content-Type header. Missing or unknown charsets fall back to UTF-8.
func NewDecoderForContentType(contentType string) *Decoder {
	if contentType == "" {
		return NewDecoder()
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return NewDecoder()
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" {
		return NewDecoder()
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == defaultCharset {
		return NewDecoder()
	}
	return NewDecoderForEncoding(name, enc)
}

// Charset returns the canonical name of the decoded charset
func (d *Decoder) Charset() string {
	return d.charset
}

// Pending returns how many bytes are held back awaiting the rest of a character
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Decode converts chunk to text, carrying incomplete trailing bytes forward
func (d *Decoder) Decode(chunk []byte) (string, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	return d.transform(src, false)
}

// Flush ends the stream. Bytes still pending become U+FFFD.
func (d *Decoder) Flush() (string, error) {
	src := d.pending
	d.pending = nil
	out, err := d.transform(src, true)
	d.t.Reset()
	return out, err
}

func (d *Decoder) transform(src []byte, atEOF bool) (string, error) {
	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.buf, src, atEOF)
		out.Write(d.buf[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			if len(src) > 0 {
				d.pending = append([]byte(nil), src...)
			}
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.buf = make([]byte, 2*len(d.buf))
			}
		case errors.Is(err, transform.ErrShortSrc) && !atEOF:
			d.pending = append([]byte(nil), src...)
			return out.String(), nil
		default:
			return out.String(), apierrors.NewDecodeError(d.charset, err)
		}
	}
}
