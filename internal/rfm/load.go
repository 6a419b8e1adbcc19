package rfm

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadThresholds reads scoring table overrides from a YAML file. Tables or
// fields absent from the file keep their defaults.
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, eris.Wrapf(err, "rfm: read thresholds %s", path)
	}
	var t Thresholds
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Thresholds{}, eris.Wrapf(err, "rfm: parse thresholds %s", path)
	}
	if m := t.Monetary.Method; m != "" && m != MethodPercentile && m != MethodFixed {
		return Thresholds{}, eris.Errorf("rfm: unknown monetary method %q", m)
	}
	return t.withDefaults(), nil
}
