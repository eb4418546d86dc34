package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/encoding/charmap"

	"d2sedit/tables"
)

// Savefile layout.  Everything here is at a fixed offset from the start of the file
// except the attribute region, which is variable length, and whatever follows it.
const (
	OFFSET_SIZE     = 8  // file size, 4 bytes LE
	OFFSET_CHECKSUM = 12 // 4 bytes LE
	CHECKSUM_LENGTH = 4
	OFFSET_NAME     = 20
	NAME_LENGTH     = 16 // including the terminating null
	OFFSET_CLASS    = 40

	HEADER_LENGTH = 765 // 0x2FD

	// The attribute region is preceded by "gf", which we check but never decode
	OFFSET_MARKER = HEADER_LENGTH
	MARKER_LENGTH = 2

	// Everything before this is copied as-is when the file is rewritten
	OFFSET_ATTRIBUTES = HEADER_LENGTH + MARKER_LENGTH
)

var MARKER = []byte("gf")

var (
	// ErrFormat is for files that don't look like savefiles.  Nothing gets written after one of these.
	ErrFormat = errors.New("bad savefile format")

	// ErrFileIO is for open/read/write failures
	ErrFileIO = errors.New("savefile i/o failed")

	ErrValueRange = fmt.Errorf("%w: value out of range", ErrFormat)
)

// Header gives named access to the fixed-offset fields of a savefile image.
// It does not copy: setters write straight into the image.
type Header []byte

func Check_header(image []byte) (Header, error) {
	if len(image) < OFFSET_ATTRIBUTES {
		return nil, fmt.Errorf("%w: file is %v bytes, header alone needs %v", ErrFormat, len(image), OFFSET_ATTRIBUTES)
	}
	h := Header(image)
	if !bytes.Equal(h.Marker(), MARKER) {
		return nil, fmt.Errorf("%w: expected attribute marker %q at %v, got %q", ErrFormat, MARKER, OFFSET_MARKER, h.Marker())
	}
	return h, nil
}

func (h Header) File_size() uint32 {
	return binary.LittleEndian.Uint32(h[OFFSET_SIZE:])
}

func (h Header) Set_file_size(n uint32) {
	binary.LittleEndian.PutUint32(h[OFFSET_SIZE:], n)
}

func (h Header) Checksum() int32 {
	return int32(binary.LittleEndian.Uint32(h[OFFSET_CHECKSUM:]))
}

func (h Header) Set_checksum(c int32) {
	binary.LittleEndian.PutUint32(h[OFFSET_CHECKSUM:], uint32(c))
}

// Name reads the null-terminated name.  The game allows a few accented letters, hence Windows-1252.
func (h Header) Name() string {
	raw := h[OFFSET_NAME : OFFSET_NAME+NAME_LENGTH]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Every byte is valid 1252, so this really shouldn't happen
		return string(raw)
	}
	return string(decoded)
}

// encode_name is name as it goes in the file.  There must be room for at least one null after it.
func encode_name(name string) ([]byte, error) {
	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("name %q can't be stored: %w", name, err)
	}
	if len(encoded) >= NAME_LENGTH {
		return nil, fmt.Errorf("name %q has %v characters; max length is %v", name, len(encoded), NAME_LENGTH-1)
	}
	return encoded, nil
}

// Check_name says whether Set_name would take name
func Check_name(name string) error {
	_, err := encode_name(name)
	return err
}

// Set_name writes a name padded out with nulls.
func (h Header) Set_name(name string) error {
	encoded, err := encode_name(name)
	if err != nil {
		return err
	}
	slot := h[OFFSET_NAME : OFFSET_NAME+NAME_LENGTH]
	clear(slot)
	copy(slot, encoded)
	return nil
}

func (h Header) Class() uint8 {
	return h[OFFSET_CLASS]
}

func (h Header) Set_class(c uint8) {
	h[OFFSET_CLASS] = c
}

func (h Header) Marker() []byte {
	return h[OFFSET_MARKER : OFFSET_MARKER+MARKER_LENGTH]
}

// Character is the part of the savefile we understand
type Character struct {
	Name       string
	Class      uint8
	Attributes map[tables.ATTR_ID]uint32
}

func New_character() *Character {
	return &Character{Attributes: map[tables.ATTR_ID]uint32{}}
}

// Class_name returns the class name, or something printable if the class is nonsense
func (c *Character) Class_name() string {
	name, ok := tables.Class_name(c.Class)
	if !ok {
		return fmt.Sprintf("Unknown (%v)", c.Class)
	}
	return name
}

// Attribute is one line of a character sheet
type Attribute struct {
	Id    tables.ATTR_ID
	Name  string
	Value uint32
}

// Ids returns the attribute ids present, ascending.  This is also the order they get written in.
func (c *Character) Ids() []tables.ATTR_ID {
	ids := make([]tables.ATTR_ID, 0, len(c.Attributes))
	for id := range c.Attributes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Sorted_attributes is a read-only view for display
func (c *Character) Sorted_attributes() []Attribute {
	out := []Attribute{}
	for _, id := range c.Ids() {
		out = append(out, Attribute{id, tables.Attrib_name(id), c.Attributes[id]})
	}
	return out
}

// Set sets an attribute, refusing anything that won't fit in the file
func (c *Character) Set(id tables.ATTR_ID, value uint32) error {
	a, ok := tables.Attrib(id)
	if !ok {
		return fmt.Errorf("%w: no attribute with id %v", ErrFormat, id)
	}
	if value > a.Max_value() {
		return fmt.Errorf("%w: %v can be at most %v (got %v)", ErrValueRange, a.Name, a.Max_value(), value)
	}
	c.Attributes[id] = value
	return nil
}

// Savedata is a savefile split into the bits we leave alone and the bit we edit.
type Savedata struct {
	// Header is everything up to and including the attribute marker, verbatim.
	Header []byte

	Character *Character

	// Attribute_length is the size of the attribute region as originally read, in bytes.
	// The trailer starts right after it.
	Attribute_length int

	// Trailer is everything after the attribute region (skills, items...), verbatim.
	Trailer []byte
}

// Original_size is the length of the file this was read from.
func (sd *Savedata) Original_size() int {
	return len(sd.Header) + sd.Attribute_length + len(sd.Trailer)
}
