package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadVocabulary reads a suffix vocabulary from a YAML file containing a
// sequence of strings. It lets deployments extend or replace the default
// business-suffix list without a rebuild.
func LoadVocabulary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "match: read vocabulary %s", path)
	}

	var suffixes []string
	if err := yaml.Unmarshal(data, &suffixes); err != nil {
		return nil, eris.Wrapf(err, "match: parse vocabulary %s", path)
	}
	if len(suffixes) == 0 {
		return nil, eris.Errorf("match: vocabulary %s is empty", path)
	}
	return suffixes, nil
}
