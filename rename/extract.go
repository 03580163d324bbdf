package rename

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FirstPageLines returns the text of a PDF's first page, split into lines
// in reading order. Client letters put the addressee in the opening lines,
// so one page is enough for matching.
func FirstPageLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := pdfcpu.OptimizeXRefTable(ctx); err != nil {
		return nil, fmt.Errorf("optimize xref: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pageDict, _, _, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, fmt.Errorf("first page dict: %w", err)
	}
	obj, found := pageDict.Find("Contents")
	if !found {
		return nil, nil
	}

	stream, err := contentStream(ctx, obj)
	if err != nil {
		return nil, fmt.Errorf("first page content stream: %w", err)
	}

	return textLines(stream), nil
}

// contentStream dereferences and decompresses a page's Contents entry,
// concatenating when it is an array of streams.
func contentStream(ctx *model.Context, obj types.Object) ([]byte, error) {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
		return v.Content, nil

	case types.Array:
		var buf bytes.Buffer
		for _, item := range v {
			data, err := contentStream(ctx, item)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unexpected Contents type: %T", obj)
	}
}

// textLines scans a content stream for shown text. Literal strings are
// accumulated into the current line; the text-positioning operators
// (Td, TD, Tm, T*) start a new one. Fonts with custom encodings are not
// decoded; letters from standard generators extract fine and a garbled
// page simply fails to match any client.
func textLines(stream []byte) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for i := 0; i < len(stream); i++ {
		c := stream[i]
		switch {
		case c == '(':
			text, next := literalString(stream, i)
			current.WriteString(text)
			i = next

		case c == '<':
			// Hex strings carry encoded glyph IDs; skip them.
			for i < len(stream) && stream[i] != '>' {
				i++
			}

		case c == 'T' && i+1 < len(stream):
			switch stream[i+1] {
			case 'd', 'D', 'm', '*':
				flush()
				i++
			}

		case c == '\'' || c == '"':
			// The quote operators also move to the next line.
			flush()
		}
	}
	flush()

	return lines
}

// literalString reads a parenthesized PDF string starting at open. It
// returns the decoded text and the index of the closing parenthesis,
// honoring nested parentheses and backslash escapes.
func literalString(stream []byte, open int) (string, int) {
	var b strings.Builder
	depth := 1
	i := open + 1
	for ; i < len(stream); i++ {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 < len(stream) {
				i++
				switch e := stream[i]; {
				case e >= '0' && e <= '7':
					// Octal escape, up to three digits.
					v := int(e - '0')
					for n := 0; n < 2 && i+1 < len(stream) && stream[i+1] >= '0' && stream[i+1] <= '7'; n++ {
						i++
						v = v*8 + int(stream[i]-'0')
					}
					b.WriteByte(byte(v))
				case e == 'n':
					b.WriteByte('\n')
				case e == 't':
					b.WriteByte('\t')
				case e == 'r', e == 'b', e == 'f':
					// Ignored control escapes.
				default:
					b.WriteByte(e)
				}
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), i
}
