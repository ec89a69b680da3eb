package models

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadNames reads a darknet-style names list: one class name per line, the line
// position being the class index. Names are trimmed. Trailing blank lines are dropped;
// a blank line before the last name keeps its index as an unnamed class.
//
// Arguments:
//   - r: The names stream.
//
// Returns:
//   - *OutputClassSet: A custom-family catalog.
//   - error: An error if reading fails or no names are present.
func LoadNames(r io.Reader) (*OutputClassSet, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = append(names, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading class names")
	}
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	return NewOutputClassSet(ModelFamilyCustom, names...)
}

// LoadNamesFile opens path and reads it with LoadNames.
func LoadNamesFile(path string) (*OutputClassSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "class names file %s", path)
	}
	defer f.Close()

	set, err := LoadNames(f)
	if err != nil {
		return nil, errors.Wrapf(err, "class names file %s", path)
	}
	return set, nil
}
