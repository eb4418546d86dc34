package main

// Between "load" and "save", the save being edited lives in a stash file.

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"d2sedit/tables"
	"d2sedit/types"
)

var ErrNothingLoaded = errors.New("nothing loaded (use \"load\" first)")

// stash_record is what goes in the stash: the decoded save and the file it goes back to
type stash_record struct {
	Filename string
	Savedata *types.Savedata
}

type stash_file string

func (sf stash_file) put(filename string, savedata *types.Savedata) error {
	f, err := os.Create(string(sf))
	if err != nil {
		return fmt.Errorf("stash: %w", err)
	}

	err = gob.NewEncoder(f).Encode(stash_record{filename, savedata})
	if err == nil {
		err = f.Sync()
	}
	if close_err := f.Close(); err == nil {
		err = close_err
	}
	if err != nil {
		return fmt.Errorf("stash %s: %w", sf, err)
	}
	return nil
}

func (sf stash_file) get() (string, *types.Savedata, error) {
	f, err := os.Open(string(sf))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, ErrNothingLoaded
	}
	if err != nil {
		return "", nil, fmt.Errorf("stash: %w", err)
	}
	defer f.Close()

	rec := stash_record{}
	err = gob.NewDecoder(f).Decode(&rec)
	if err != nil {
		return "", nil, fmt.Errorf("stash %s: %w", sf, err)
	}
	if rec.Filename == "" || rec.Savedata == nil {
		return "", nil, fmt.Errorf("stash %s: %w: no save in it", sf, types.ErrFormat)
	}

	// gob leaves out zero values, so an empty character comes back nil
	sd := rec.Savedata
	if sd.Character == nil {
		sd.Character = types.New_character()
	}
	if sd.Character.Attributes == nil {
		sd.Character.Attributes = map[tables.ATTR_ID]uint32{}
	}
	return rec.Filename, sd, nil
}

func (sf stash_file) clear() error {
	err := os.Remove(string(sf))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stash: %w", err)
	}
	return nil
}
