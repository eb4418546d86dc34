package writers

// Functions for writing savefiles back out.
// The only part of the file that gets re-encoded is the attribute region; everything else is spliced
// back in around it.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"d2sedit/bits"
	"d2sedit/tables"
	"d2sedit/types"
	"d2sedit/utils"
)

// Overrides replace attribute values at write time, without touching the Character.
// An id in here that the character doesn't have gets added.
type Overrides map[tables.ATTR_ID]uint32

// Write_attributes encodes c's attributes (in ascending id order), then the sentinel.
// Returns the number of bytes used.
func Write_attributes(w *bits.Writer, c *types.Character, overrides Overrides) (int, error) {
	values := map[tables.ATTR_ID]uint32{}
	for id, v := range c.Attributes {
		values[id] = v
	}
	for id, v := range overrides {
		values[id] = v
	}

	ids := (&types.Character{Attributes: values}).Ids()
	for _, id := range ids {
		info, ok := tables.Attrib(id)
		if !ok {
			return 0, fmt.Errorf("%w: attribute id %v is not a known attribute", types.ErrFormat, id)
		}
		value := values[id]
		if value > info.Max_value() {
			return 0, fmt.Errorf("%w: %v can be at most %v (got %v)", types.ErrValueRange, info.Name, info.Max_value(), value)
		}

		err := w.Write_bits(uint32(id), tables.ATTR_ID_WIDTH)
		if err != nil {
			return 0, err
		}
		err = w.Write_bits(value<<info.Transform, info.Width)
		if err != nil {
			return 0, err
		}
	}

	err := w.Write_bits(uint32(tables.ATTR_SENTINEL), tables.ATTR_ID_WIDTH)
	if err != nil {
		return 0, err
	}

	return w.Bytes_touched(), nil
}

// Splice builds a complete new file image:
// original header (with name and class updated from the character, if they were changed), freshly encoded attributes, original trailer.
// The size and checksum fields are fixed up to match.
func Splice(sd *types.Savedata, overrides Overrides) ([]byte, error) {
	if len(sd.Header) != types.OFFSET_ATTRIBUTES {
		return nil, fmt.Errorf("splice: %w: header is %v bytes, expected %v", types.ErrFormat, len(sd.Header), types.OFFSET_ATTRIBUTES)
	}

	w := bits.New_writer()
	length, err := Write_attributes(w, sd.Character, overrides)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	total := len(sd.Header) + length + len(sd.Trailer)
	image := make([]byte, 0, total)
	image = append(image, sd.Header...)
	image = append(image, w.Bytes()...)
	image = append(image, sd.Trailer...)

	// Name and class are only touched if they were edited; otherwise the header goes out as it came in.
	header := types.Header(image)
	if sd.Character.Name != header.Name() {
		err = header.Set_name(sd.Character.Name)
		if err != nil {
			return nil, fmt.Errorf("splice: %w", err)
		}
	}
	if sd.Character.Class != header.Class() {
		if _, ok := tables.Class_name(sd.Character.Class); !ok {
			return nil, fmt.Errorf("splice: %w: class %v", types.ErrValueRange, sd.Character.Class)
		}
		header.Set_class(sd.Character.Class)
	}

	header.Set_file_size(uint32(len(image)))
	utils.Fix_checksum(image)

	return image, nil
}

// Fix repairs the size and checksum of an image in place, without re-encoding anything.
func Fix(image []byte) (int32, error) {
	if len(image) < types.OFFSET_CHECKSUM+types.CHECKSUM_LENGTH {
		return 0, fmt.Errorf("fix: %w: file is only %v bytes", types.ErrFormat, len(image))
	}
	types.Header(image).Set_file_size(uint32(len(image)))
	return utils.Fix_checksum(image), nil
}

// Backup_name is where the old file goes before we overwrite it: "foo.d2s" -> "foo.old"
func Backup_name(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".old"
}

// Write_file replaces filename's contents with image in a single write.
//
// Since this is a "powerful" (i.e. capable of completely trashing savefiles) tool, a backup is taken
// first if backup is set.  The write itself is not atomic.
func Write_file(filename string, image []byte, backup bool) error {
	if backup {
		err := os.Rename(filename, Backup_name(filename))
		if err != nil {
			return fmt.Errorf("write: %w: backing up: %w", types.ErrFileIO, err)
		}
	}

	err := os.WriteFile(filename, image, 0644)
	if err != nil {
		return fmt.Errorf("write: %w: %w", types.ErrFileIO, err)
	}
	return nil
}
