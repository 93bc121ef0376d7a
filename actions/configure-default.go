package actions

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/relloyd/bronze/config"
	"github.com/relloyd/bronze/helper"
)

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
}

// RunDefaultAdd adds key+value to the given config file.
// If cfg.Force is not set then it returns an error when the key exists.
// The config file is created if it does not exist.
func RunDefaultAdd(cfg *DefaultAddConfig, out io.Writer) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	var val string
	err := cfg.ConfigFile.Get(cfg.Key, &val)
	if err == nil && !cfg.Force { // if key exists and we're not allowed to overwrite...
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	} else if err != nil && !errors.As(err, &config.KeyNotFoundError{}) { // else there is an unexpected error...
		return err
	}
	if err = cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %v", err)
	}
	_, _ = fmt.Fprintf(out, "Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

// RunDefaultRemove removes a key from the given config file.
func RunDefaultRemove(cfg *DefaultRemoveConfig, out io.Writer) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %v", cfg.Key, err)
	}
	_, _ = fmt.Fprintf(out, "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints key=value for every default in the given config file.
func RunDefaultList(configFile *config.File, out io.Writer) error {
	keys, err := configFile.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys { // for each key...
		var val string
		if err := configFile.Get(k, &val); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%v=%v\n", k, val)
	}
	return nil
}
