package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/phpreflect/config"
	"github.com/dhamidi/phpreflect/php/broker"
)

var log = commonlog.GetLogger("phpreflect")

type globalOptions struct {
	configPath string
	verbose    int
}

// load reads the configuration for a project rooted at dir and configures
// logging from it. The -v flag raises the configured verbosity.
func (o *globalOptions) load(dir string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDir(projectDir(dir))
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	verbosity := cfg.Log.Verbosity + o.verbose
	if cfg.Log.File != "" {
		commonlog.Configure(verbosity, &cfg.Log.File)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	return cfg, nil
}

// newBroker builds a broker from the configuration for dir.
func (o *globalOptions) newBroker(dir string) (*broker.Broker, *config.Config, error) {
	cfg, err := o.load(dir)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.BrokerOptions()
	if err != nil {
		return nil, nil, fmt.Errorf("configure broker: %w", err)
	}
	return broker.New(opts...), cfg, nil
}

// process feeds a file or a directory to the broker. Per-file failures are
// returned but do not stop processing.
func process(b *broker.Broker, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		_, err := b.ProcessDirectory(path)
		return err
	}
	_, err = b.ProcessFile(path)
	return err
}

// projectDir is the directory a configuration file is looked up in for a
// path argument.
func projectDir(path string) string {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}
