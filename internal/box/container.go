package box

import (
	"io"

	"github.com/pkg/errors"
)

// Container is the parsed form of a JXL file: the codestream plus whatever
// optional metadata boxes accompanied it. Serialize always emits boxes in
// the order spec.md §4.3 requires: signature, ftyp, [jxll if level != 5],
// [colr], [Exif], [xml ], [jxli], jxlc.
type Container struct {
	Level        uint8 // 0 means "unset"; 5 is the default and omits jxll
	ICCProfile   []byte
	Exif         []byte
	XMP          []byte
	FrameIndex   *FrameIndexBox
	Codestream   []byte
}

// Serialize writes the container's boxes in the fixed order.
func (c *Container) Serialize() []byte {
	w := NewWriter()
	w.WriteSignature()
	w.WriteBox(DefaultFileType().Box())
	if c.Level != 0 && c.Level != 5 {
		w.WriteBox(NewLevelBox(c.Level))
	}
	if c.ICCProfile != nil {
		w.WriteBox(NewColorBox(c.ICCProfile))
	}
	if c.Exif != nil {
		w.WriteBox(NewExifBox(c.Exif))
	}
	if c.XMP != nil {
		w.WriteBox(NewXMLBox(c.XMP))
	}
	if c.FrameIndex != nil {
		w.WriteBox(c.FrameIndex.Box())
	}
	w.WriteBox(NewCodestreamBox(c.Codestream))
	return w.Bytes()
}

// ParseContainer walks the box sequence in data. Duplicate boxes of optional
// types are permitted; the last one wins. Parsing fails with
// ErrInvalidContainer on a signature mismatch or a truncated box.
func ParseContainer(data []byte) (*Container, error) {
	r := NewReader(data)

	sig, err := r.ReadBox()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidContainer, "reading signature box")
	}
	if sig.Type != TypeSignature || len(sig.Contents) != 4 ||
		sig.Contents[0] != Signature[0] || sig.Contents[1] != Signature[1] ||
		sig.Contents[2] != Signature[2] || sig.Contents[3] != Signature[3] {
		return nil, errors.Wrap(ErrInvalidContainer, "bad JXL signature")
	}

	c := &Container{Level: 5}
	sawFtyp := false
	for {
		b, err := r.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch b.Type {
		case TypeFileType:
			ft, err := ParseFileType(b.Contents)
			if err != nil {
				return nil, err
			}
			if ft.MajorBrand != JXLBrand {
				return nil, errors.Wrap(ErrInvalidContainer, "unknown required brand")
			}
			sawFtyp = true
		case TypeLevel:
			if len(b.Contents) < 1 {
				return nil, errors.Wrap(ErrInvalidContainer, "jxll box too short")
			}
			c.Level = b.Contents[0]
		case TypeColor:
			icc, err := ParseColorBox(b.Contents)
			if err != nil {
				return nil, err
			}
			c.ICCProfile = icc
		case TypeExif:
			exif, err := ParseExifBox(b.Contents)
			if err != nil {
				return nil, err
			}
			c.Exif = exif
		case TypeXML:
			c.XMP = b.Contents
		case TypeFrameIndex:
			fi, err := ParseFrameIndexBox(b.Contents)
			if err != nil {
				return nil, err
			}
			c.FrameIndex = fi
		case TypeCodestream:
			c.Codestream = append(append([]byte(nil), c.Codestream...), b.Contents...)
		case TypePartial:
			c.Codestream = append(c.Codestream, b.Contents...)
		}
	}
	if !sawFtyp {
		return nil, errors.Wrap(ErrInvalidContainer, "missing ftyp box")
	}
	if c.Codestream == nil {
		return nil, errors.Wrap(ErrInvalidContainer, "no codestream box found")
	}
	return c, nil
}
