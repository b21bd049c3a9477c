package facemesh

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// LoadLabels reads blendshape labels from a file, one label per line,
// tolerating a single line of labels separated by commas or spaces.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// if the labels come out as one line, try splitting that line by commas
	// or spaces to extract labels
	if len(labels) == 1 {
		labels = strings.Split(labels[0], ",")
	}
	if len(labels) == 1 {
		labels = strings.Split(labels[0], " ")
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("no labels found in %s", path)
	}
	return labels, nil
}
