package state

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"rsrc/provider"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// Provider opens resource bundle from configuration on first call and
// returns the same provider afterwards.
func (e *LocalEnv) Provider() (*provider.Provider, error) {
	if e.provider != nil {
		return e.provider, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}

	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	p, err := provider.Open(e.Cfg.Resources.Bundle, &e.Cfg.Resources, log)
	if err != nil {
		return nil, fmt.Errorf("unable to open resource bundle '%s': %w", e.Cfg.Resources.Bundle, err)
	}
	e.provider = p
	return p, nil
}

// CloseProvider releases resource bundle if it was opened. When debug
// report is being created bundle content seen through default locale is
// stored there first.
func (e *LocalEnv) CloseProvider() error {
	if e.provider == nil {
		return nil
	}
	if e.Rpt != nil {
		e.Rpt.StoreData("resources.txt", []byte(e.provider.Dump(e.provider.DefaultLocale())))
	}
	err := e.provider.Close()
	e.provider = nil
	return err
}
