package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMappingsNotFound is returned when an explicit mappings file does not exist.
	ErrMappingsNotFound = errors.New("mappings file not found")
	// ErrInvalidMappings is returned when the mappings file cannot be parsed or fails validation.
	ErrInvalidMappings = errors.New("invalid mappings")
)

// Ancillary channels and key derivations understood by the linkage step.
var (
	validChannels = []string{"discovery", "spatial", "archival"}
	validKeys     = []string{"exact", "granule", "revision"}
)

// SDSProduct maps a generated product type to the input product types it is produced from.
type SDSProduct struct {
	Type   string   `yaml:"type"`
	Index  string   `yaml:"index"`
	Inputs []string `yaml:"inputs"`
}

// AncillarySource describes a side catalog joined onto primary products.
type AncillarySource struct {
	Name    string `yaml:"name"`
	Index   string `yaml:"index"`
	Channel string `yaml:"channel"`
	Key     string `yaml:"key"`
}

// Mappings names the collections each report reads and how product types relate.
type Mappings struct {
	InputIndexes          map[string]string `yaml:"input_indexes"`
	IncomingAncillary     map[string]string `yaml:"incoming_ancillary"`
	ProductIndexes        map[string]string `yaml:"product_indexes"`
	OutgoingProducts      map[string]string `yaml:"outgoing_products"`
	StateConfigIndexes    map[string]string `yaml:"state_config_indexes"`
	AccountabilityIndexes map[string]string `yaml:"accountability_indexes"`
	SDSProducts           []SDSProduct      `yaml:"sds_products"`
	Ancillary             []AncillarySource `yaml:"ancillary"`
}

// DefaultMappings returns the built-in collection layout.
func DefaultMappings() *Mappings {
	return &Mappings{
		InputIndexes: map[string]string{
			"HLS_L30": "grq_1_l2_hls_l30",
			"HLS_S30": "grq_1_l2_hls_s30",
		},
		IncomingAncillary: map[string]string{},
		ProductIndexes: map[string]string{
			"DSWX_HLS": "grq_1_l3_dswx_hls",
		},
		OutgoingProducts: map[string]string{
			"DSWX_HLS": "grq_1_l3_dswx_hls",
		},
		StateConfigIndexes: map[string]string{
			"L30_STATE_CONFIG": "grq_1_l2_hls_l30-state-config",
			"S30_STATE_CONFIG": "grq_1_l2_hls_s30-state-config",
		},
		AccountabilityIndexes: map[string]string{
			"DOWNLINK":    "pass_accountability_catalog",
			"OBSERVATION": "observation_accountability_catalog",
			"TRACK_FRAME": "track_frame_accountability_catalog",
		},
		SDSProducts: []SDSProduct{
			{Type: "L3_DSWX_HLS", Index: "grq_1_l3_dswx_hls", Inputs: []string{"L2_HLS_L30", "L2_HLS_S30"}},
		},
		Ancillary: []AncillarySource{
			{Name: "hls", Index: "hls_catalog", Channel: "discovery", Key: "exact"},
			{Name: "hls_spatial", Index: "hls_spatial_catalog", Channel: "spatial", Key: "granule"},
		},
	}
}

// LoadMappings reads a YAML mappings file over the defaults. An empty path returns the
// defaults. A section present in the file replaces the default section whole; absent
// sections keep their default values.
func LoadMappings(path string) (*Mappings, error) {
	m := DefaultMappings()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMappingsNotFound, path)
		}
		return nil, fmt.Errorf("failed to read mappings %s: %w", path, err)
	}

	var file Mappings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMappings, path, err)
	}
	m.overlay(&file)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// overlay replaces every section of m that f sets.
func (m *Mappings) overlay(f *Mappings) {
	for _, s := range []struct{ dst, src *map[string]string }{
		{&m.InputIndexes, &f.InputIndexes},
		{&m.IncomingAncillary, &f.IncomingAncillary},
		{&m.ProductIndexes, &f.ProductIndexes},
		{&m.OutgoingProducts, &f.OutgoingProducts},
		{&m.StateConfigIndexes, &f.StateConfigIndexes},
		{&m.AccountabilityIndexes, &f.AccountabilityIndexes},
	} {
		if *s.src != nil {
			*s.dst = *s.src
		}
	}
	if f.SDSProducts != nil {
		m.SDSProducts = f.SDSProducts
	}
	if f.Ancillary != nil {
		m.Ancillary = f.Ancillary
	}
}

// Validate checks the mappings for values the reports cannot work with.
func (m *Mappings) Validate() error {
	if len(m.InputIndexes) == 0 {
		return fmt.Errorf("%w: no input indexes configured", ErrInvalidMappings)
	}
	for _, p := range m.SDSProducts {
		if p.Type == "" || len(p.Inputs) == 0 {
			return fmt.Errorf("%w: sds product %q needs a type and at least one input", ErrInvalidMappings, p.Type)
		}
	}
	for _, a := range m.Ancillary {
		if a.Index == "" {
			return fmt.Errorf("%w: ancillary source %q has no index", ErrInvalidMappings, a.Name)
		}
		if !slices.Contains(validChannels, a.Channel) {
			return fmt.Errorf("%w: ancillary source %q has unknown channel %q", ErrInvalidMappings, a.Name, a.Channel)
		}
		if !slices.Contains(validKeys, a.Key) {
			return fmt.Errorf("%w: ancillary source %q has unknown key %q", ErrInvalidMappings, a.Name, a.Key)
		}
	}
	return nil
}

// Collections returns the index names of a mapping in a stable order.
func Collections(m map[string]string) []string {
	var out []string
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if v := m[k]; v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Groups converts name -> index mappings into the grouped form used for counting. Later
// sources override earlier ones on a name clash.
func Groups(sources ...map[string]string) map[string][]string {
	out := make(map[string][]string)
	for _, m := range sources {
		for name, index := range m {
			out[name] = []string{index}
		}
	}
	return out
}

// InputsFor returns the input types feeding an output type, or nil when it is not mapped.
func (m *Mappings) InputsFor(outputType string) []string {
	for _, p := range m.SDSProducts {
		if p.Type == outputType {
			return p.Inputs
		}
	}
	return nil
}

// OutputTypes lists the known generated product types in configuration order.
func (m *Mappings) OutputTypes() []string {
	out := make([]string, 0, len(m.SDSProducts))
	for _, p := range m.SDSProducts {
		out = append(out, p.Type)
	}
	return out
}
