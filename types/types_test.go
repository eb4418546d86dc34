package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"d2sedit/tables"
)

func blank_image() []byte {
	image := make([]byte, OFFSET_ATTRIBUTES)
	copy(image[OFFSET_MARKER:], MARKER)
	return image
}

func TestCheck_header(t *testing.T) {
	_, err := Check_header(make([]byte, HEADER_LENGTH))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Check_header(make([]byte, OFFSET_ATTRIBUTES))
	assert.ErrorIs(t, err, ErrFormat, "missing marker")

	h, err := Check_header(blank_image())
	require.NoError(t, err)
	assert.Equal(t, []byte("gf"), h.Marker())
}

func TestHeaderFields(t *testing.T) {
	h := Header(blank_image())

	h.Set_file_size(0x01020304)
	assert.Equal(t, []byte{4, 3, 2, 1}, []byte(h[OFFSET_SIZE:OFFSET_SIZE+4]))
	assert.Equal(t, uint32(0x01020304), h.File_size())

	h.Set_checksum(-2)
	assert.Equal(t, []byte{0xFE, 0xFF, 0xFF, 0xFF}, []byte(h[OFFSET_CHECKSUM:OFFSET_CHECKSUM+4]))
	assert.Equal(t, int32(-2), h.Checksum())

	h.Set_class(4)
	assert.Equal(t, uint8(4), h.Class())
	assert.Equal(t, byte(4), h[40])
}

func TestName(t *testing.T) {
	h := Header(blank_image())
	copy(h[OFFSET_NAME:], "Hero")
	assert.Equal(t, "Hero", h.Name())

	require.NoError(t, h.Set_name("Zoë"))
	assert.Equal(t, "Zoë", h.Name())
	assert.Equal(t, byte(0xEB), h[OFFSET_NAME+2])

	// shorter name must not leave the old one's tail behind
	require.NoError(t, h.Set_name("Al"))
	assert.Equal(t, "Al", h.Name())
	assert.Equal(t, make([]byte, NAME_LENGTH-2), []byte(h[OFFSET_NAME+2:OFFSET_NAME+NAME_LENGTH]))

	assert.Error(t, h.Set_name("ExactlySixteen16"))
	assert.NoError(t, h.Set_name("FifteenLetters1"))
	assert.Error(t, h.Set_name("日本"))
}

func TestCheck_name(t *testing.T) {
	// 15 letters, 16 bytes of UTF-8, 15 bytes in the file
	assert.NoError(t, Check_name("Zoëllenbergerin"))
	assert.Error(t, Check_name("Zoëllenbergerins"))
	assert.Error(t, Check_name("日本"))
}

func TestCharacterView(t *testing.T) {
	c := New_character()
	c.Class = 1
	require.NoError(t, c.Set(tables.ATTR_GOLD, 500))
	require.NoError(t, c.Set(tables.ATTR_STRENGTH, 15))

	assert.Equal(t, "Sorceress", c.Class_name())
	assert.Equal(t, []Attribute{
		{tables.ATTR_STRENGTH, "Strength", 15},
		{tables.ATTR_GOLD, "Gold", 500},
	}, c.Sorted_attributes())

	c.Class = 9
	assert.Equal(t, "Unknown (9)", c.Class_name())
}

func TestCharacterSetRange(t *testing.T) {
	c := New_character()
	assert.ErrorIs(t, c.Set(tables.ATTR_STRENGTH, 1024), ErrValueRange)
	assert.ErrorIs(t, c.Set(tables.ATTR_STRENGTH, 1024), ErrFormat)
	assert.NoError(t, c.Set(tables.ATTR_STRENGTH, 1023))
	assert.ErrorIs(t, c.Set(tables.ATTR_HP, 8192), ErrValueRange)
	assert.ErrorIs(t, c.Set(tables.ATTR_COUNT, 1), ErrFormat)
	assert.Len(t, c.Attributes, 1)
}
