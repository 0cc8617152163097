package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kairos-io/kairos-sdk/unstructured"
	"github.com/sanity-io/litter"
	"gopkg.in/yaml.v3"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/schema"
)

func LoadByte(b []byte) (*schema.Config, error) {
	config := &schema.Config{}

	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile loads a build configuration file
func LoadFile(file string) (*schema.Config, error) {
	dat, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return LoadByte(dat)
}

// ReadConfig parses the configuration file and applies the dotted key=value
// overrides on top of it.
func ReadConfig(fileConfig string, options []string) (*schema.Config, error) {
	c := &schema.Config{}

	if fileConfig != "" {
		var err error
		c, err = LoadFile(fileConfig)
		if err != nil {
			return nil, err
		}
	}

	m := map[string]interface{}{}
	for _, o := range options {
		i := strings.Index(o, "=")
		if i == -1 {
			return nil, fmt.Errorf("invalid arguments for set")
		}
		m[o[:i]] = o[i+1:]
	}

	if len(m) > 0 {
		y, err := unstructured.ToYAML(m)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(y, c); err != nil {
			return c, err
		}
	}

	internal.Log.Logger.Debug().Msg(litter.Sdump(c))
	return c, nil
}
