package recognizer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SegMode is the engine's page segmentation assumption (Tesseract --psm).
type SegMode int

const (
	SegAuto         SegMode = 3
	SegSingleColumn SegMode = 4
	SegSingleBlock  SegMode = 6
	SegSparseText   SegMode = 11
)

func (m SegMode) String() string {
	switch m {
	case SegAuto:
		return "automatic"
	case SegSingleColumn:
		return "single column"
	case SegSingleBlock:
		return "single uniform block"
	case SegSparseText:
		return "sparse text"
	default:
		return "psm " + strconv.Itoa(int(m))
	}
}

// Variable is one engine variable passed as "-c key=value".
type Variable struct {
	Key   string
	Value string
}

// Profile describes one engine invocation. Profiles are values; the
// Variables slice is never modified after construction.
type Profile struct {
	ID                      string
	SegMode                 SegMode
	DPI                     int
	PreserveInterwordSpaces bool
	Whitelist               string
	Variables               []Variable
}

// Profile identifiers.
const (
	ProfileAuto                = "auto"
	ProfileColumns             = "columns"
	ProfileBlock               = "block"
	ProfileBlockTight          = "block_tight"
	ProfileSparse              = "sparse"
	ProfileBlockWhitelist      = "block_whitelist"
	ProfileBlockTightWhitelist = "block_tight_whitelist"
)

// DefaultWhitelist restricts recognition to the characters found in
// address and contact lines.
const DefaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789,.- "

// DefaultProfiles returns the fixed profile set for the given DPI hint.
func DefaultProfiles(dpi int) []Profile {
	tight := []Variable{{Key: "textord_min_linesize", Value: "1.2"}}
	return []Profile{
		{ID: ProfileAuto, SegMode: SegAuto, DPI: dpi, PreserveInterwordSpaces: true},
		{ID: ProfileColumns, SegMode: SegSingleColumn, DPI: dpi, PreserveInterwordSpaces: true},
		{ID: ProfileBlock, SegMode: SegSingleBlock, DPI: dpi, PreserveInterwordSpaces: true},
		{ID: ProfileBlockTight, SegMode: SegSingleBlock, DPI: dpi, PreserveInterwordSpaces: true, Variables: tight},
		{ID: ProfileSparse, SegMode: SegSparseText, DPI: dpi, PreserveInterwordSpaces: true},
		{ID: ProfileBlockWhitelist, SegMode: SegSingleBlock, DPI: dpi, PreserveInterwordSpaces: true, Whitelist: DefaultWhitelist},
		{
			ID: ProfileBlockTightWhitelist, SegMode: SegSingleBlock, DPI: dpi, PreserveInterwordSpaces: true,
			Whitelist: DefaultWhitelist, Variables: tight,
		},
	}
}

// ProfileSet indexes profiles by ID.
type ProfileSet map[string]Profile

// NewProfileSet builds a set and rejects duplicate or empty IDs.
func NewProfileSet(profiles []Profile) (ProfileSet, error) {
	set := make(ProfileSet, len(profiles))
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile with segmentation mode %d has no id", p.SegMode)
		}
		if _, dup := set[p.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		set[p.ID] = p
	}
	return set, nil
}

// IDs returns the profile IDs sorted.
func (s ProfileSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// variables returns every engine variable the profile sets, sorted by key.
func (p Profile) variables() []Variable {
	vars := slices.Clone(p.Variables)
	if p.PreserveInterwordSpaces {
		vars = append(vars, Variable{Key: "preserve_interword_spaces", Value: "1"})
	}
	if p.Whitelist != "" {
		vars = append(vars, Variable{Key: "tessedit_char_whitelist", Value: p.Whitelist})
	}
	slices.SortStableFunc(vars, func(a, b Variable) int { return strings.Compare(a.Key, b.Key) })
	return vars
}

// Args renders the profile as engine command-line arguments.
func (p Profile) Args(oem int, language string) []string {
	args := []string{"--oem", strconv.Itoa(oem), "--psm", strconv.Itoa(int(p.SegMode))}
	if language != "" {
		args = append(args, "-l", language)
	}
	if p.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(p.DPI))
	}
	for _, v := range p.variables() {
		args = append(args, "-c", v.Key+"="+v.Value)
	}
	return args
}

// ConfigString renders the profile the way it is passed to the engine,
// e.g. "--oem 3 --psm 6 -l eng --dpi 1500 -c preserve_interword_spaces=1".
func (p Profile) ConfigString(oem int, language string) string {
	return strings.Join(p.Args(oem, language), " ")
}
