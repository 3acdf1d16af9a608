package config

import (
	"errors"
	"fmt"
	"os"
)

func readConfig(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read configuration: %w", MissingConfigError{Path: path})
		}
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return data, nil
}
