package datactx

import (
	"path/filepath"
	"strings"

	jsonparser "github.com/knadh/koanf/parsers/json"
	tomlparser "github.com/knadh/koanf/parsers/toml"
	yamlparser "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/types"
)

// Load merges the given data files in order, applies key=value overrides
// last, and converts the result into a Context
func Load(paths []string, sets []string) (*types.Context, error) {
	k := koanf.New(".")

	for _, path := range paths {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrContextLoad,
				"loading data file %q", path).WithDetail("path", path)
		}
	}

	for _, set := range sets {
		key, value, err := parseSet(set)
		if err != nil {
			return nil, err
		}
		if err := k.Load(confmap.Provider(map[string]interface{}{key: value}, "."), nil); err != nil {
			return nil, errors.Wrapf(err, errors.ErrContextLoad, "applying override %q", set)
		}
	}

	return types.ContextFromAny(k.Raw())
}

// LoadBytes builds a Context from raw data in the given format
// ("yaml", "toml" or "json")
func LoadBytes(data []byte, format string) (*types.Context, error) {
	parser, err := parserForFormat(format)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, errors.Wrapf(err, errors.ErrContextParse, "parsing %s data", format)
	}
	return types.ContextFromAny(k.Raw())
}

func parserFor(path string) (koanf.Parser, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	parser, err := parserForFormat(ext)
	if err != nil {
		return nil, errors.Newf(errors.ErrContextLoad,
			"unsupported data file format %q", path).WithDetail("path", path)
	}
	return parser, nil
}

func parserForFormat(format string) (koanf.Parser, error) {
	switch format {
	case "yaml":
		return yamlparser.Parser(), nil
	case "toml":
		return tomlparser.Parser(), nil
	case "json":
		return jsonparser.Parser(), nil
	default:
		return nil, errors.Newf(errors.ErrContextLoad, "unsupported data format %q", format)
	}
}

// parseSet splits a key=value override. The value is decoded as a YAML
// scalar so that numbers and booleans keep their types; anything that fails
// to decode stays a plain string.
func parseSet(set string) (string, interface{}, error) {
	idx := strings.IndexByte(set, '=')
	if idx <= 0 {
		return "", nil, errors.Newf(errors.ErrInvalidInput,
			"override %q is not of the form key=value", set)
	}
	key := set[:idx]
	raw := set[idx+1:]

	var value interface{}
	if err := goyaml.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	return key, value, nil
}

// rawBytesProvider adapts an in-memory byte slice to koanf's provider
// interface
type rawBytesProvider struct {
	bytes []byte
}

func (r *rawBytesProvider) ReadBytes() ([]byte, error) {
	return r.bytes, nil
}

func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "rawBytesProvider does not support Read")
}
