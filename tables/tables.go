package tables

// These tables are in their own file because everything else looks them up.
// They are built once and never modified.

import "strconv"

type ATTR_ID uint16

const (
	ATTR_STRENGTH ATTR_ID = iota
	ATTR_ENERGY
	ATTR_DEXTERITY
	ATTR_VITALITY
	ATTR_STATS_LEFT
	ATTR_SKILLS_LEFT
	ATTR_HP
	ATTR_MAX_HP
	ATTR_MANA
	ATTR_MAX_MANA
	ATTR_STAMINA
	ATTR_MAX_STAMINA
	ATTR_LEVEL
	ATTR_EXPERIENCE
	ATTR_GOLD
	ATTR_STASH_GOLD

	ATTR_COUNT
)

const (
	ATTR_ID_WIDTH = 9 // Attribute ids are stored in 9 bits...

	// ...and 9 bits of all 1s ends the list.
	// (Only 4 bits of id are ever really used, so this can't be confused with a real attribute)
	ATTR_SENTINEL ATTR_ID = 1<<ATTR_ID_WIDTH - 1
)

type Attribinfo struct {
	Name  string
	Width int // bits in the file

	// Stored values are right-shifted by this much when reading and left-shifted when writing.
	// Life, mana and stamina are kept in 1/256ths in the file.
	Transform int
}

// Logical_width is how many bits the value has once the transform is undone
func (a Attribinfo) Logical_width() int {
	return a.Width - a.Transform
}

// Max_value is the largest value that survives a write.
func (a Attribinfo) Max_value() uint32 {
	return uint32(uint64(1)<<uint(a.Logical_width()) - 1)
}

var attributes = []Attribinfo{
	ATTR_STRENGTH:    {"Strength", 10, 0},
	ATTR_ENERGY:      {"Energy", 10, 0},
	ATTR_DEXTERITY:   {"Dexterity", 10, 0},
	ATTR_VITALITY:    {"Vitality", 10, 0},
	ATTR_STATS_LEFT:  {"Stats left", 10, 0},
	ATTR_SKILLS_LEFT: {"Skills left", 8, 0},
	ATTR_HP:          {"HP", 21, 8},
	ATTR_MAX_HP:      {"Max HP", 21, 8},
	ATTR_MANA:        {"Mana", 21, 8},
	ATTR_MAX_MANA:    {"Max Mana", 21, 8},
	ATTR_STAMINA:     {"Stamina", 21, 8},
	ATTR_MAX_STAMINA: {"Max Stamina", 21, 8},
	ATTR_LEVEL:       {"Level", 7, 0},
	ATTR_EXPERIENCE:  {"Experience", 32, 0},
	ATTR_GOLD:        {"Gold", 25, 0},
	ATTR_STASH_GOLD:  {"Stash Gold", 25, 0},
}

// Attrib looks up an attribute.  ok is false for anything outside the table, including the sentinel.
func Attrib(id ATTR_ID) (Attribinfo, bool) {
	if int(id) >= len(attributes) {
		return Attribinfo{}, false
	}
	return attributes[id], true
}

// Attrib_name never fails, which makes it handy for printing.
func Attrib_name(id ATTR_ID) string {
	a, ok := Attrib(id)
	if !ok {
		return "Unknown attribute " + strconv.Itoa(int(id))
	}
	return a.Name
}

// Attrib_names maps every valid id to its name.  Returns a fresh map; callers may scribble on it.
func Attrib_names() map[ATTR_ID]string {
	out := map[ATTR_ID]string{}
	for id, a := range attributes {
		out[ATTR_ID(id)] = a.Name
	}
	return out
}

// Character classes, in file order
var classes = []string{
	"Amazon",
	"Sorceress",
	"Necromancer",
	"Paladin",
	"Barbarian",
	"Druid",
	"Assassin",
}

const CLASS_COUNT = 7

func Class_name(class uint8) (string, bool) {
	if int(class) >= len(classes) {
		return "", false
	}
	return classes[class], true
}

func Class_names() map[uint8]string {
	out := map[uint8]string{}
	for i, c := range classes {
		out[uint8(i)] = c
	}
	return out
}
