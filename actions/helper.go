package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// OutputLoadDefinition writes cfg to w as YAML or JSON so it can be saved and used with the file flag.
func OutputLoadDefinition(cfg *LoadConfig, yamlOrJson string, w io.Writer) error {
	var data []byte
	var err error
	switch strings.ToLower(yamlOrJson) {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
	if err != nil {
		return errors.Wrap(err, "unable to marshal the load definition")
	}
	_, err = w.Write(data)
	return err
}

// LoadDefinitionFromFile reads a load definition from a .yaml, .yml or .json file.
func LoadDefinitionFromFile(fileName string) (*LoadConfig, error) {
	raw, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	cfg := &LoadConfig{}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		if err = json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("error reading load definition JSON: unmarshal errors: %v", err)
		}
	case ".yaml", ".yml":
		b, err := yaml.YAMLToJSON(raw) // http://ghodss.com/2014/the-right-way-to-handle-yaml-in-golang/
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("error reading load definition YAML after conversion to JSON: unmarshal errors: %v", err)
		}
	default:
		return nil, fmt.Errorf("unable to identify type of load definition file by its extension. Please use .yaml or .json")
	}
	return cfg, nil
}
