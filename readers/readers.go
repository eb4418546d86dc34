package readers

import (
	"errors"
	"fmt"
	"os"

	"d2sedit/bits"
	"d2sedit/tables"
	"d2sedit/types"
)

// Read_attributes decodes the attribute region into c.Attributes
//
// Attribute region format:
//
// A list of (id, value) pairs, not byte-aligned, LSB-first
// 1 id: 9 bits
// 2 value: however many bits the attribute table says (see tables.go), shifted by the attribute's transform
// The list ends with the sentinel id (9 bits of 1s), with no value after it.
// The last byte is padded out with 0s.
//
// r must be positioned just after the "gf" marker.
// Returns the number of bytes the region used, which is needed later to find the start of the trailer.
func Read_attributes(r *bits.Reader, c *types.Character) (int, error) {
	for {
		raw_id, err := r.Read_field(tables.ATTR_ID_WIDTH)
		if err != nil {
			return 0, fmt.Errorf("%w: attribute list not terminated: %w", types.ErrFormat, err)
		}
		id := tables.ATTR_ID(raw_id)
		if id == tables.ATTR_SENTINEL {
			return r.Bytes_touched(), nil
		}

		info, ok := tables.Attrib(id)
		if !ok {
			return 0, fmt.Errorf("%w: attribute id %v at byte %v is not a known attribute", types.ErrFormat, id, r.Bytes_touched())
		}

		raw, err := r.Read_field(info.Width)
		if err != nil {
			return 0, fmt.Errorf("%w: %v value cut short: %w", types.ErrFormat, info.Name, err)
		}

		// Repeats shouldn't happen, but if they do, last one wins
		c.Attributes[id] = raw >> info.Transform
	}
}

// Read_savedata reads savedata (presumably, from a .d2s savefile)
// The header and trailer are kept as raw bytes.  The image is not modified or kept.
func Read_savedata(image []byte) (*types.Savedata, error) {
	header, err := types.Check_header(image)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	c := types.New_character()
	c.Name = header.Name()
	c.Class = header.Class()

	r := bits.New_reader(image[types.OFFSET_ATTRIBUTES:])
	length, err := Read_attributes(r, c)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	trailer_start := types.OFFSET_ATTRIBUTES + length
	return &types.Savedata{
		Header:           append([]byte{}, image[:types.OFFSET_ATTRIBUTES]...),
		Character:        c,
		Attribute_length: length,
		Trailer:          append([]byte{}, image[trailer_start:]...),
	}, nil
}

// Read_file loads and decodes a savefile from disk.
func Read_file(filename string) (*types.Savedata, error) {
	image, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read: %w: %w", types.ErrFileIO, err)
	}
	sd, err := Read_savedata(image)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return sd, nil
}

// Is_format_error is true for errors that mean the file itself is bad (as opposed to, say, missing)
func Is_format_error(err error) bool {
	return errors.Is(err, types.ErrFormat)
}
