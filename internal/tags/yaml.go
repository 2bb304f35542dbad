package tags

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML document of tags. Nested mappings and sequences are
// flattened into dotted keys, so
//
//	user:
//	  name: ada
//	  roles: [admin]
//
// defines 'user.name' and 'user.roles.0'.
func LoadYAML(path string) (*MapSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open tag file")
	}
	defer file.Close()

	var doc interface{}
	if err := yaml.NewDecoder(file).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "decode tag file %s", path)
	}

	values := make(map[string]interface{})
	flatten("", doc, values)
	return NewMapSource(values), nil
}

// ParseYAML is LoadYAML for an in-memory document.
func ParseYAML(data []byte) (*MapSource, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode tags")
	}
	values := make(map[string]interface{})
	flatten("", doc, values)
	return NewMapSource(values), nil
}

func flatten(prefix string, node interface{}, out map[string]interface{}) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			flatten(join(k), v, out)
		}
	case map[interface{}]interface{}:
		for k, v := range n {
			flatten(join(fmt.Sprint(k)), v, out)
		}
	case []interface{}:
		for i, v := range n {
			flatten(join(strconv.Itoa(i)), v, out)
		}
	default:
		if prefix != "" {
			out[prefix] = n
		}
	}
}
