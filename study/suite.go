package study

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite is a list of study configurations.
type Suite struct {
	Studies []Config `yaml:"studies"`
}

// LoadSuite reads study configurations from a YAML file and fills
// omitted fields with the standard experiment setup.
func LoadSuite(path string) ([]Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := yaml.Unmarshal(b, &suite); err != nil {
		return nil, err
	}
	if len(suite.Studies) == 0 {
		return nil, fmt.Errorf("no studies in suite %s", path)
	}
	for i := range suite.Studies {
		suite.Studies[i].ApplyDefaults()
	}
	return suite.Studies, nil
}
