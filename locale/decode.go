package locale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/beevik/etree"
	yaml "gopkg.in/yaml.v3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// decoderFunc turns table file content into flat key to template mapping.
type decoderFunc func(data []byte) (map[string]string, error)

var decoders = map[string]decoderFunc{
	".yaml":   decodeYAML,
	".yml":    decodeYAML,
	".toml":   decodeTOML,
	".json":   decodeJSON,
	".xml":    decodeXML,
	".db":     decodeSQLite,
	".sqlite": decodeSQLite,
}

func decoderFor(name string) (decoderFunc, bool) {
	dec, ok := decoders[strings.ToLower(path.Ext(name))]
	return dec, ok
}

func decodeYAML(data []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return flatten(doc)
}

func decodeTOML(data []byte) (map[string]string, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	return flatten(doc)
}

func decodeJSON(data []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return flatten(doc)
}

// decodeXML reads tables in the following form, groups prefix keys of
// everything nested in them:
//
//	<resources>
//	  <string key="A.B.Key">text</string>
//	  <group key="Menu">
//	    <string key="Open">Open</string>
//	  </group>
//	</resources>
//
// "name" attribute is accepted in place of "key".
func decodeXML(data []byte) (map[string]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.SelectElement("resources")
	if root == nil {
		return nil, fmt.Errorf("root element <resources> not found")
	}
	out := make(map[string]string)
	if err := walkXML(root, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkXML(el *etree.Element, prefix string, out map[string]string) error {
	for _, child := range el.ChildElements() {
		key := child.SelectAttrValue("key", child.SelectAttrValue("name", ""))
		if len(key) == 0 {
			return fmt.Errorf("element <%s> under %q has no key", child.Tag, prefix)
		}
		key = joinKey(prefix, key)
		switch child.Tag {
		case "string":
			if err := put(out, key, child.Text()); err != nil {
				return err
			}
		case "group":
			if err := walkXML(child, key, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected element <%s> for key %q", child.Tag, key)
		}
	}
	return nil
}

// decodeSQLite reads table "strings" with "key" and "value" text columns from
// serialized database image.
func decodeSQLite(data []byte) (map[string]string, error) {
	conn, err := sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenMemory)
	if err != nil {
		return nil, fmt.Errorf("open in-memory db: %w", err)
	}
	defer conn.Close()

	if err := conn.Deserialize("main", data); err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}

	out := make(map[string]string)
	err = sqlitex.Execute(conn, `SELECT key, value FROM strings`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			return put(out, stmt.ColumnText(0), stmt.ColumnText(1))
		}})
	if err != nil {
		return nil, fmt.Errorf("read strings: %w", err)
	}
	return out, nil
}

func joinKey(prefix, key string) string {
	if len(prefix) == 0 {
		return key
	}
	return prefix + "." + key
}

func put(out map[string]string, key, value string) error {
	if _, exists := out[key]; exists {
		return fmt.Errorf("duplicate key %q", key)
	}
	out[key] = value
	return nil
}

// flatten converts nested maps into dot separated keys. Scalars are kept
// in their textual form, null becomes empty string.
func flatten(doc map[string]any) (map[string]string, error) {
	out := make(map[string]string)
	if err := flattenInto(out, "", doc); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]string, prefix string, node map[string]any) error {
	for k, v := range node {
		key := joinKey(prefix, k)
		switch val := v.(type) {
		case map[string]any:
			if err := flattenInto(out, key, val); err != nil {
				return err
			}
		case map[any]any:
			conv := make(map[string]any, len(val))
			for ik, iv := range val {
				conv[fmt.Sprint(ik)] = iv
			}
			if err := flattenInto(out, key, conv); err != nil {
				return err
			}
		default:
			s, err := scalarString(val)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			if err := put(out, key, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	case time.Time:
		return val.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
