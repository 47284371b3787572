package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

// Tables holds the lookup vocabularies shared by the parser and the formatter.
type Tables struct {
	// Crops is ordered; the first crop found in a message wins.
	Crops []models.Crop `yaml:"crops"`
	// Currencies maps an ISO currency code to the prefix used in replies.
	Currencies map[string]string `yaml:"currencies"`
}

// DefaultTables returns the built-in vocabularies.
func DefaultTables() Tables {
	return Tables{
		Crops: []models.Crop{"MAIZE", "TOBACCO", "SOYA", "COTTON", "WHEAT", "BARLEY"},
		Currencies: map[string]string{
			"USD": "$",
			"ZWL": "Z$",
			"BWP": "P",
			"ZMW": "K",
			"TZS": "TSh",
			"MWK": "MK",
			"KES": "KSh",
			"ZAR": "R",
		},
	}
}

// LoadTables returns the default tables, overridden by the YAML file at path when set.
// Sections absent from the file keep their defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file %s: %w", path, err)
	}

	var override Tables
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Tables{}, fmt.Errorf("decode tables file %s: %w", path, err)
	}

	if len(override.Crops) > 0 {
		tables.Crops = make([]models.Crop, 0, len(override.Crops))
		for _, crop := range override.Crops {
			name := strings.ToUpper(strings.TrimSpace(string(crop)))
			if name == "" {
				return Tables{}, fmt.Errorf("tables file %s: empty crop name", path)
			}
			tables.Crops = append(tables.Crops, models.Crop(name))
		}
	}

	if len(override.Currencies) > 0 {
		tables.Currencies = make(map[string]string, len(override.Currencies))
		for code, symbol := range override.Currencies {
			tables.Currencies[strings.ToUpper(code)] = symbol
		}
	}

	return tables, nil
}

// HasCrop reports whether crop is part of the vocabulary.
func (t Tables) HasCrop(crop models.Crop) bool {
	for _, c := range t.Crops {
		if c == crop {
			return true
		}
	}
	return false
}
