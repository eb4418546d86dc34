package writers

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"d2sedit/bits"
	"d2sedit/readers"
	"d2sedit/tables"
	"d2sedit/types"
	"d2sedit/utils"
)

var strength_15 = []byte{0x00, 0x1E, 0xF8, 0x0F}

func make_image(name string, class uint8, region []byte, trailer []byte) []byte {
	image := make([]byte, types.OFFSET_ATTRIBUTES)
	copy(image[types.OFFSET_NAME:], name)
	image[types.OFFSET_CLASS] = class
	copy(image[types.OFFSET_MARKER:], types.MARKER)
	image = append(image, region...)
	return append(image, trailer...)
}

func hero(t *testing.T, trailer []byte) *types.Savedata {
	t.Helper()
	sd, err := readers.Read_savedata(make_image("Hero", 1, strength_15, trailer))
	require.NoError(t, err)
	return sd
}

func TestWrite_attributesGolden(t *testing.T) {
	c := types.New_character()
	c.Attributes[tables.ATTR_STRENGTH] = 15

	w := bits.New_writer()
	n, err := Write_attributes(w, c, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, strength_15, w.Bytes())
}

func TestWrite_attributesEmpty(t *testing.T) {
	w := bits.New_writer()
	n, err := Write_attributes(w, types.New_character(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0xFF, 0x01}, w.Bytes())
}

func TestWrite_attributesOutOfRange(t *testing.T) {
	c := types.New_character()
	c.Attributes[tables.ATTR_LEVEL] = 128
	_, err := Write_attributes(bits.New_writer(), c, nil)
	assert.ErrorIs(t, err, types.ErrValueRange)

	c = types.New_character()
	_, err = Write_attributes(bits.New_writer(), c, Overrides{tables.ATTR_MANA: 1 << 13})
	assert.ErrorIs(t, err, types.ErrValueRange)

	c = types.New_character()
	c.Attributes[tables.ATTR_COUNT] = 1
	_, err = Write_attributes(bits.New_writer(), c, nil)
	assert.ErrorIs(t, err, types.ErrFormat)
}

// Scenario: decode, encode with no edits, decode again
func TestSpliceNoEdits(t *testing.T) {
	trailer := []byte("if\x00\x01JM\x00\x00")
	original := make_image("Hero", 1, strength_15, trailer)
	sd, err := readers.Read_savedata(original)
	require.NoError(t, err)

	image, err := Splice(sd, nil)
	require.NoError(t, err)

	again, err := readers.Read_savedata(image)
	require.NoError(t, err)
	assert.Equal(t, sd.Character, again.Character)
	assert.Equal(t, trailer, again.Trailer)

	// Only size and checksum differ from the input
	assert.Len(t, image, len(original))
	assert.Equal(t, uint32(len(image)), types.Header(image).File_size())
	assert.Equal(t, utils.Checksum(image), types.Header(image).Checksum())
	assert.Equal(t, original[16:], image[16:])
}

// Scenario: override Strength to 99
func TestSpliceOverride(t *testing.T) {
	sd := hero(t, []byte{9, 8, 7})
	sd.Character.Attributes[tables.ATTR_GOLD] = 1234

	image, err := Splice(sd, Overrides{tables.ATTR_STRENGTH: 99})
	require.NoError(t, err)

	again, err := readers.Read_savedata(image)
	require.NoError(t, err)
	assert.Equal(t, map[tables.ATTR_ID]uint32{
		tables.ATTR_STRENGTH: 99,
		tables.ATTR_GOLD:     1234,
	}, again.Character.Attributes)

	// The record itself is untouched by overrides
	assert.Equal(t, uint32(15), sd.Character.Attributes[tables.ATTR_STRENGTH])
}

func TestSpliceGrowsAndShrinks(t *testing.T) {
	trailer := []byte("the rest of the file")
	sd := hero(t, trailer)
	require.Equal(t, 4, sd.Attribute_length)

	sd.Character.Attributes[tables.ATTR_EXPERIENCE] = 3600000000
	sd.Character.Attributes[tables.ATTR_MAX_HP] = 8000
	sd.Character.Attributes[tables.ATTR_STASH_GOLD] = 2500000

	image, err := Splice(sd, nil)
	require.NoError(t, err)

	// 4 pairs: 9+10, 9+21, 9+32, 9+25, + sentinel 9 = 133 bits
	l_new := 17
	assert.Len(t, image, types.OFFSET_ATTRIBUTES+l_new+len(trailer))
	assert.Equal(t, uint32(len(image)), types.Header(image).File_size())
	assert.Equal(t, trailer, image[len(image)-len(trailer):])

	grown, err := readers.Read_savedata(image)
	require.NoError(t, err)
	assert.Equal(t, l_new, grown.Attribute_length)
	assert.Equal(t, sd.Character.Attributes, grown.Character.Attributes)
	assert.Equal(t, trailer, grown.Trailer)

	// and back down again
	grown.Character.Attributes = map[tables.ATTR_ID]uint32{}
	image, err = Splice(grown, nil)
	require.NoError(t, err)
	assert.Len(t, image, types.OFFSET_ATTRIBUTES+2+len(trailer))
	assert.Equal(t, uint32(len(image)), types.Header(image).File_size())
	assert.Equal(t, utils.Checksum(image), types.Header(image).Checksum())

	empty, err := readers.Read_savedata(image)
	require.NoError(t, err)
	assert.Empty(t, empty.Character.Attributes)
	assert.Equal(t, trailer, empty.Trailer)
}

func TestSpliceNameAndClass(t *testing.T) {
	sd := hero(t, nil)
	sd.Character.Name = "Tal-Rasha"
	sd.Character.Class = 6

	image, err := Splice(sd, nil)
	require.NoError(t, err)
	again, err := readers.Read_savedata(image)
	require.NoError(t, err)
	assert.Equal(t, "Tal-Rasha", again.Character.Name)
	assert.Equal(t, "Assassin", again.Character.Class_name())

	sd.Character.Class = 7
	_, err = Splice(sd, nil)
	assert.ErrorIs(t, err, types.ErrValueRange)

	sd.Character.Class = 0
	sd.Character.Name = "ThisNameIsFarTooLong"
	_, err = Splice(sd, nil)
	assert.Error(t, err)
}

// Junk after the name's NUL and a class the game doesn't have both survive a save with no edits
func TestSpliceLeavesUneditedHeaderAlone(t *testing.T) {
	original := make_image("Hero", 9, strength_15, []byte{1, 2})
	original[types.OFFSET_NAME+6] = 0x41
	sd, err := readers.Read_savedata(original)
	require.NoError(t, err)
	assert.Equal(t, "Hero", sd.Character.Name)

	image, err := Splice(sd, Overrides{tables.ATTR_STRENGTH: 20})
	require.NoError(t, err)
	assert.Equal(t, original[types.OFFSET_NAME:types.OFFSET_ATTRIBUTES], image[types.OFFSET_NAME:types.OFFSET_ATTRIBUTES])
	assert.Equal(t, byte(0x41), image[types.OFFSET_NAME+6])
	assert.Equal(t, uint8(9), types.Header(image).Class())

	// an actual edit still clears the slot
	sd.Character.Name = "Zed"
	image, err = Splice(sd, nil)
	require.NoError(t, err)
	assert.Equal(t, "Zed", types.Header(image).Name())
	assert.Equal(t, byte(0), image[types.OFFSET_NAME+6])
}

func TestSpliceRefusesBrokenSavedata(t *testing.T) {
	sd := hero(t, nil)
	sd.Header = sd.Header[:100]
	_, err := Splice(sd, nil)
	assert.ErrorIs(t, err, types.ErrFormat)
}

// decode(encode(record)) == record, for lots of random records
func TestCodecRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		c := types.New_character()
		c.Name = "Rnd"
		c.Class = uint8(rng.Intn(tables.CLASS_COUNT))
		for id := tables.ATTR_ID(0); id < tables.ATTR_COUNT; id++ {
			if rng.Intn(2) == 0 {
				continue
			}
			info, _ := tables.Attrib(id)
			c.Attributes[id] = uint32(rng.Uint64() & uint64(info.Max_value()))
		}

		sd := &types.Savedata{
			Header:    make_image("", 0, nil, nil),
			Character: c,
			Trailer:   []byte{0xDE, 0xAD},
		}
		image, err := Splice(sd, nil)
		require.NoError(t, err)

		again, err := readers.Read_savedata(image)
		require.NoError(t, err)
		assert.Equal(t, c, again.Character)
		assert.Equal(t, sd.Trailer, again.Trailer)
	}
}

func TestFix(t *testing.T) {
	image := make_image("Hero", 1, strength_15, []byte{1, 2, 3})
	cksum, err := Fix(image)
	require.NoError(t, err)
	assert.Equal(t, cksum, types.Header(image).Checksum())
	assert.Equal(t, uint32(len(image)), types.Header(image).File_size())

	_, err = Fix(make([]byte, 10))
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestWrite_file(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "Hero.d2s")
	require.NoError(t, os.WriteFile(filename, []byte("old"), 0644))

	require.NoError(t, Write_file(filename, []byte("new"), true))

	got, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	old, err := os.ReadFile(filepath.Join(dir, "Hero.old"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), old)

	err = Write_file(filepath.Join(dir, "missing", "x.d2s"), nil, false)
	assert.ErrorIs(t, err, types.ErrFileIO)
}

func TestBackup_name(t *testing.T) {
	assert.Equal(t, "saves/Hero.old", Backup_name("saves/Hero.d2s"))
	assert.Equal(t, "Hero.old", Backup_name("Hero"))
}
