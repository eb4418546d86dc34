package main

// Things that can be got and set.  name and class are special; everything else is an attribute.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"d2sedit/tables"
	"d2sedit/types"
	"d2sedit/utils"
)

const (
	WHAT_NAME  = "name"
	WHAT_CLASS = "class"
)

func list_ettables() string {
	lines := []string{"   " + WHAT_NAME, "   " + WHAT_CLASS}
	for id := tables.ATTR_ID(0); id < tables.ATTR_COUNT; id++ {
		lines = append(lines, "   "+tables.Attrib_name(id))
	}
	return strings.Join(lines, "\n")
}

// which turns "what" into name, class, or an attribute id
func which(what string) (string, tables.ATTR_ID, error) {
	switch strings.ToLower(strings.TrimSpace(what)) {
	case WHAT_NAME, WHAT_CLASS:
		return strings.ToLower(strings.TrimSpace(what)), 0, nil
	}

	id, matched, err := utils.Fuzzy_reverse_lookup(tables.Attrib_names(), what, "attribute")
	if err != nil {
		return "", 0, fmt.Errorf("%w\nGettables are:\n%s", err, list_ettables())
	}
	return matched, id, nil
}

// get gets something and returns it as a human-readable string
func get(what string, c *types.Character) (string, error) {
	name, id, err := which(what)
	if err != nil {
		return "", err
	}

	switch name {
	case WHAT_NAME:
		return c.Name, nil
	case WHAT_CLASS:
		return fmt.Sprint(c.Class, ": ", c.Class_name()), nil
	}

	v, ok := c.Attributes[id]
	if !ok {
		// Not actually an error; the game leaves out attributes that are 0
		return name + ": not present", nil
	}
	return fmt.Sprint(name, ": ", v), nil
}

// set sets something, returning what it was set to (which for fuzzy matches may not be what was typed)
func set(what string, to string, c *types.Character) (string, string, error) {
	name, id, err := which(what)
	if err != nil {
		return "", "", err
	}

	switch name {
	case WHAT_NAME:
		if to == "" {
			return "", "", errors.New("name can't be empty")
		}
		if err := types.Check_name(to); err != nil {
			return "", "", err
		}
		c.Name = to
		return name, to, nil

	case WHAT_CLASS:
		class, matched, err := utils.Fuzzy_reverse_lookup(tables.Class_names(), to, "class")
		if err != nil {
			return "", "", err
		}
		c.Class = class
		return name, matched, nil
	}

	value, err := strconv.ParseUint(strings.TrimSpace(to), 10, 32)
	if err != nil {
		if strings.HasPrefix(strings.TrimSpace(to), "-") {
			return "", "", errors.New("negative values are not allowed for " + name)
		}
		return "", "", fmt.Errorf("%v: %w", name, err)
	}
	err = c.Set(id, uint32(value))
	if err != nil {
		return "", "", err
	}
	return name, strconv.FormatUint(value, 10), nil
}

// describe is a character sheet
func describe(c *types.Character) string {
	lines := []string{
		"Name:  " + c.Name,
		"Class: " + c.Class_name(),
	}
	for _, a := range c.Sorted_attributes() {
		lines = append(lines, fmt.Sprintf("   %-12s %v", a.Name+":", a.Value))
	}
	return strings.Join(lines, "\n")
}
